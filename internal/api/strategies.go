package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/multisend"
)

type StrategyHandler struct {
	System *repertoire.System
	// Timeout bounds one request, chain reads and quotes included.
	Timeout time.Duration
}

func (h *StrategyHandler) Register(r *gin.Engine) {
	r.GET("/strategies", h.list)
	r.GET("/strategies/:id/options", h.baseOptions)
	r.POST("/strategies/:id/options", h.options)
	r.POST("/strategies-to-transactions", h.toTransactions)
	r.POST("/strategies-to-exec-with-role", h.toExecWithRole)
	r.POST("/multisend-transactions", h.multisend)
	r.POST("/txns/:kind/:protocol/:name", h.single)
}

type transactionsRequest struct {
	Blockchain        string                    `json:"blockchain"`
	AvatarSafeAddress string                    `json:"avatar_safe_address"`
	StrategyCalls     []repertoire.StrategyCall `json:"strategy_calls"`
	Multisend         bool                      `json:"multisend"`
}

type execWithRoleRequest struct {
	Blockchain        string                    `json:"blockchain"`
	AvatarSafeAddress string                    `json:"avatar_safe_address"`
	RolesModAddress   string                    `json:"roles_mod_address"`
	Role              any                       `json:"role"`
	StrategyCalls     []repertoire.StrategyCall `json:"strategy_calls"`
}

type multisendRequest struct {
	Blockchain string                    `json:"blockchain"`
	Txns       []repertoire.Transactable `json:"txns"`
}

type singleRequest struct {
	Blockchain        string         `json:"blockchain"`
	AvatarSafeAddress string         `json:"avatar_safe_address"`
	Arguments         map[string]any `json:"arguments"`
}

type optionsRequest struct {
	Blockchain string         `json:"blockchain"`
	Arguments  map[string]any `json:"arguments"`
}

func (h *StrategyHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

// blockchain resolves a chain name, ethereum when empty.
func blockchain(name string) (chain.Blockchain, error) {
	if strings.TrimSpace(name) == "" {
		return chain.Ethereum, nil
	}
	bc, err := chain.ByName(name)
	if err != nil {
		return chain.Blockchain{}, invalidField("blockchain", fmt.Errorf("%w: %q", err, name))
	}
	return bc, nil
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Fail(c, invalidField("body", err))
		return false
	}
	return true
}

func (h *StrategyHandler) list(c *gin.Context) {
	bc, err := blockchain(c.Query("blockchain"))
	if err != nil {
		Fail(c, err)
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()
	Ok(c, gin.H{"strategies": h.System.Catalogue(ctx, bc)}, map[string]any{"blockchain": bc.Name})
}

func (h *StrategyHandler) baseOptions(c *gin.Context) {
	bc, err := blockchain(c.Query("blockchain"))
	if err != nil {
		Fail(c, err)
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()
	opts, err := h.System.BaseOptions(ctx, bc, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"options": opts}, nil)
}

func (h *StrategyHandler) options(c *gin.Context) {
	var req optionsRequest
	if !bindJSON(c, &req) {
		return
	}
	bc, err := blockchain(req.Blockchain)
	if err != nil {
		Fail(c, err)
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()
	opts, err := h.System.Options(ctx, bc, c.Param("id"), req.Arguments)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"options": opts}, nil)
}

func (h *StrategyHandler) toTransactions(c *gin.Context) {
	var req transactionsRequest
	if !bindJSON(c, &req) {
		return
	}
	bc, err := blockchain(req.Blockchain)
	if err != nil {
		Fail(c, err)
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()
	txs, err := h.System.Transactions(ctx, bc, req.AvatarSafeAddress, req.StrategyCalls)
	if err != nil {
		Fail(c, err)
		return
	}
	if req.Multisend && len(txs) > 0 {
		batch, err := multisend.MultiOrOne(bc, txs)
		if err != nil {
			Fail(c, err)
			return
		}
		txs = []repertoire.Transactable{batch}
	}
	Ok(c, gin.H{"txns": txs}, nil)
}

func (h *StrategyHandler) toExecWithRole(c *gin.Context) {
	var req execWithRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	bc, err := blockchain(req.Blockchain)
	if err != nil {
		Fail(c, err)
		return
	}
	rolesMod, err := chain.ParseAddress(req.RolesModAddress)
	if err != nil {
		Fail(c, invalidField("roles_mod_address", err))
		return
	}
	if req.Role == nil {
		Fail(c, invalidField("role", errors.New("required")))
		return
	}
	role, err := multisend.ParseRole(fmt.Sprint(req.Role))
	if err != nil {
		Fail(c, invalidField("role", err))
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()
	txs, err := h.System.Transactions(ctx, bc, req.AvatarSafeAddress, req.StrategyCalls)
	if err != nil {
		Fail(c, err)
		return
	}
	batch, err := multisend.MultiOrOne(bc, txs)
	if err != nil {
		Fail(c, err)
		return
	}
	tx, err := multisend.ExecWithRole(rolesMod, role, batch)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"txn": tx}, nil)
}

func (h *StrategyHandler) multisend(c *gin.Context) {
	var req multisendRequest
	if !bindJSON(c, &req) {
		return
	}
	bc, err := blockchain(req.Blockchain)
	if err != nil {
		Fail(c, err)
		return
	}
	tx, err := multisend.MultiOrOne(bc, req.Txns)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"txn": tx}, nil)
}

// single runs one strategy addressed by its kind, protocol and name.
func (h *StrategyHandler) single(c *gin.Context) {
	var req singleRequest
	if !bindJSON(c, &req) {
		return
	}
	bc, err := blockchain(req.Blockchain)
	if err != nil {
		Fail(c, err)
		return
	}
	id := c.Param("protocol") + "__" + c.Param("name")
	st, err := h.System.Registry().Get(id)
	if err != nil {
		Fail(c, err)
		return
	}
	if string(st.Meta().Kind) != c.Param("kind") {
		Fail(c, &repertoire.NotFoundError{Kind: "strategy", Key: c.Param("kind") + "/" + id})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()
	txs, err := h.System.Transactions(ctx, bc, req.AvatarSafeAddress, []repertoire.StrategyCall{{ID: id, Arguments: req.Arguments}})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"txns": txs}, nil)
}
