package rest

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/store"
)

const MAX_PAGE_SIZE = 100

// GetChangesQueryParams holds query parameters for GET /changes
type GetChangesQueryParams struct {
	// Filters
	TokenIDs   []string `form:"token_id"`
	Operations []string `form:"operation"`

	// Pagination
	Anchor *uint64 `form:"anchor"` // only changes after this cursor
	Limit  int     `form:"limit,default=20"`
}

// ParseGetChangesQuery parses query parameters for GET /changes
func ParseGetChangesQuery(c *gin.Context) (*GetChangesQueryParams, error) {
	var params GetChangesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limit
	if params.Limit > MAX_PAGE_SIZE || params.Limit <= 0 {
		params.Limit = MAX_PAGE_SIZE
	}

	return &params, nil
}

// Filter validates the parameters and converts them to a store filter
func (p *GetChangesQueryParams) Filter() (store.ChangesQueryFilter, error) {
	filter := store.ChangesQueryFilter{
		Anchor: p.Anchor,
		Limit:  p.Limit,
	}

	for _, raw := range p.TokenIDs {
		id, err := domain.ParseTokenID(raw)
		if err != nil {
			return store.ChangesQueryFilter{}, err
		}
		filter.TokenIDs = append(filter.TokenIDs, id)
	}

	for _, raw := range p.Operations {
		op := domain.EventType(raw)
		if !op.Valid() {
			return store.ChangesQueryFilter{}, fmt.Errorf("unknown operation %q", raw)
		}
		filter.Operations = append(filter.Operations, op)
	}

	return filter, nil
}

// ListTransfersQueryParams holds query parameters for GET /transfers
type ListTransfersQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ParseListTransfersQuery parses query parameters for GET /transfers
func ParseListTransfersQuery(c *gin.Context) (*ListTransfersQueryParams, error) {
	var params ListTransfersQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit > MAX_PAGE_SIZE || params.Limit <= 0 {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Offset < 0 {
		return nil, errors.New("offset must not be negative")
	}

	return &params, nil
}
