package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "strategies", "transactions"}, names)
}

func TestReadInputKeepsLargeAmounts(t *testing.T) {
	cmd := newTransactionsCmd(new(string))
	cmd.SetIn(strings.NewReader(`{
		"blockchain": "ethereum",
		"avatar_safe_address": "0x8353157092ED8Be69a9DF8F95af097bbF33Cb2aF",
		"strategy_calls": [{"id": "lido__unstake_stETH", "arguments": {"amount": 1500000000000000000000}}]
	}`))

	in, err := readInput(cmd, "-")
	require.NoError(t, err)
	require.Len(t, in.StrategyCalls, 1)
	assert.Equal(t, json.Number("1500000000000000000000"), in.StrategyCalls[0].Arguments["amount"])
}

func TestReadInputRejectsGarbage(t *testing.T) {
	cmd := newTransactionsCmd(new(string))
	cmd.SetIn(strings.NewReader(`{"blockchain":`))

	_, err := readInput(cmd, "-")
	assert.Error(t, err)
}
