package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
)

func TestCatalogue(t *testing.T) {
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)

	var ids []string
	for _, s := range reg.List() {
		ids = append(ids, s.Meta().ID())
	}
	assert.Equal(t, []string{
		"balancer__withdraw_all_assets_proportional",
		"balancer__withdraw_single",
		"balancer__withdraw_all_assets_proportional_pools_in_recovery",
		"balancer__unstake_from_gauge",
		"balancer__exit_2_1",
		"balancer__exit_2_2",
		"balancer__exit_2_3",
		"aura__exit_1",
		"aura__exit_2_1",
		"aura__exit_2_2",
		"lido__unstake_stETH",
		"lido__unwrap_and_unstake_wstETH",
		"dsr__withdraw_with_proxy",
		"dsr__withdraw_without_proxy",
		"spark__withdraw_with_proxy",
		"balancer__swap_on_balancer",
		"curve__swap_on_curve",
		"uniswapv3__swap_on_uniswapv3",
	}, ids)

	assert.Len(t, reg.ListFor(chain.Gnosis), 13, "lido, dsr and uniswap are Ethereum only")
}

func TestRegisterTwiceFails(t *testing.T) {
	reg, err := NewRegistry(Deps{})
	require.NoError(t, err)

	err = Register(reg, Deps{})
	var ce *repertoire.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
