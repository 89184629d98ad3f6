package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/99designs/gqlgen/graphql"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/history"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/service"
	"github.com/feral-file/ff-tier-pass/internal/store"
	"github.com/feral-file/ff-tier-pass/internal/store/schema"
)

// maxPageSize caps the page of transfers and changes
const maxPageSize = 100

// Service is the read surface the resolvers query
type Service interface {
	OwnerOf(id domain.TokenID) (domain.Account, bool)
	TokenOf(account domain.Account) (domain.TokenID, bool)
	TokenInfo(id domain.TokenID) (domain.TokenInfo, bool)
	Tier(tier uint64) service.TierView
	History(id domain.TokenID) []history.Entry
	NextTokenID() domain.TokenID
	TokenURI(id domain.TokenID) (string, bool)
	Settings() registry.Settings
	Balance(account domain.Account) domain.Amount
	Transfers() []ledger.Transfer
	Now() domain.Timestamp
	Changes(ctx context.Context, filter store.ChangesQueryFilter) ([]*schema.ChangesJournal, uint64, error)
}

// Resolver is the root query resolver
type Resolver struct {
	service Service
}

// NewResolver creates a new root resolver with the service
func NewResolver(svc Service) *Resolver {
	return &Resolver{service: svc}
}

func (r *Resolver) resolve(ctx context.Context, field string, args arguments) (any, error) {
	switch field {
	case "token":
		id, err := args.uint64Arg("id")
		if err != nil {
			return nil, err
		}
		return r.token(domain.TokenID(id)), nil

	case "tokenOf":
		account, err := accountArg(args, "account")
		if err != nil {
			return nil, err
		}
		id, ok := r.service.TokenOf(account)
		if !ok {
			return nil, nil
		}
		return r.token(id), nil

	case "tier":
		tier, err := args.intArg("tier")
		if err != nil {
			return nil, err
		}
		if tier < 0 {
			return nil, argumentError("tier", fmt.Errorf("must not be negative"))
		}
		return tierObject(r.service.Tier(uint64(tier))), nil

	case "tiers":
		tiers := make([]any, 0, len(domain.Tiers))
		for _, tier := range domain.Tiers {
			tiers = append(tiers, tierObject(r.service.Tier(uint64(tier))))
		}
		return tiers, nil

	case "config":
		return r.config(), nil

	case "nextTokenID":
		return Uint64(r.service.NextTokenID()), nil

	case "balance":
		account, err := accountArg(args, "account")
		if err != nil {
			return nil, err
		}
		return Int64(r.service.Balance(account)), nil

	case "transfers":
		return r.transfers(args)

	case "changes":
		return r.changes(ctx, args)

	default:
		return nil, fmt.Errorf("unknown field Query.%s", field)
	}
}

// token returns nil when the token does not exist
func (r *Resolver) token(id domain.TokenID) any {
	info, ok := r.service.TokenInfo(id)
	if !ok {
		return nil
	}

	return fields{
		"id": func() any { return Uint64(id) },
		"owner": func() any {
			if owner, ok := r.service.OwnerOf(id); ok {
				return graphql.MarshalString(owner.String())
			}
			return nil
		},
		"tier": func() any { return graphql.MarshalInt(int(info.Tier)) },
		"expiry": func() any {
			if at, ok := info.Expiry.Get(); ok {
				return Uint64(at)
			}
			return nil
		},
		"metadata": func() any { return graphql.MarshalString(info.Metadata) },
		"uri": func() any {
			uri, _ := r.service.TokenURI(id)
			return graphql.MarshalString(uri)
		},
		"history": func() any {
			entries := r.service.History(id)
			items := make([]any, 0, len(entries))
			for _, entry := range entries {
				items = append(items, historyObject(entry))
			}
			return items
		},
	}
}

func historyObject(entry history.Entry) object {
	return fields{
		"action":    func() any { return graphql.MarshalString(string(entry.Action)) },
		"timestamp": func() any { return Uint64(entry.Timestamp) },
		"actor":     func() any { return graphql.MarshalString(entry.Actor.String()) },
	}
}

func tierObject(view service.TierView) object {
	return fields{
		"tier": func() any { return graphql.MarshalInt(int(view.Tier)) }, //nolint:gosec,G115
		"price": func() any {
			if !view.Priced {
				return nil
			}
			return Int64(view.Price)
		},
		"active": func() any { return graphql.MarshalBoolean(view.Active) },
	}
}

func (r *Resolver) config() object {
	settings := r.service.Settings()
	return fields{
		"admin": func() any { return graphql.MarshalString(settings.Admin.String()) },
		"authority": func() any {
			if settings.Authority == nil {
				return nil
			}
			return graphql.MarshalString(settings.Authority.String())
		},
		"paused":        func() any { return graphql.MarshalBoolean(settings.Paused) },
		"mintFee":       func() any { return Int64(settings.MintFee) },
		"baseURI":       func() any { return graphql.MarshalString(settings.BaseURI) },
		"maxTokens":     func() any { return Uint64(settings.MaxTokens) },
		"nextTokenID":   func() any { return Uint64(r.service.NextTokenID()) },
		"timeReference": func() any { return Uint64(r.service.Now()) },
	}
}

func (r *Resolver) transfers(args arguments) (any, error) {
	offset, err := args.intArg("offset")
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, argumentError("offset", fmt.Errorf("must not be negative"))
	}
	limit, err := args.intArg("limit")
	if err != nil {
		return nil, err
	}
	if limit > maxPageSize || limit <= 0 {
		limit = maxPageSize
	}

	transfers := r.service.Transfers()
	total := len(transfers)
	start := min(offset, total)
	end := min(start+limit, total)

	items := make([]any, 0, end-start)
	for _, t := range transfers[start:end] {
		items = append(items, fields{
			"amount": func() any { return Int64(t.Amount) },
			"from":   func() any { return graphql.MarshalString(t.From.String()) },
			"to":     func() any { return graphql.MarshalString(t.To.String()) },
		})
	}

	return fields{
		"items": func() any { return items },
		"total": func() any { return graphql.MarshalInt(total) },
	}, nil
}

func (r *Resolver) changes(ctx context.Context, args arguments) (any, error) {
	anchor, err := args.optionalUint64Arg("anchor")
	if err != nil {
		return nil, err
	}
	limit, err := args.intArg("limit")
	if err != nil {
		return nil, err
	}
	if limit > maxPageSize || limit <= 0 {
		limit = maxPageSize
	}

	filter := store.ChangesQueryFilter{Anchor: anchor, Limit: limit}
	for _, raw := range args.listArg("operations") {
		name, _ := raw.(string)
		op := domain.EventType(name)
		if !op.Valid() {
			return nil, argumentError("operations", fmt.Errorf("unknown operation %q", name))
		}
		filter.Operations = append(filter.Operations, op)
	}
	for _, raw := range args.listArg("tokenIDs") {
		var id Uint64
		if err := id.UnmarshalGQL(raw); err != nil {
			return nil, argumentError("tokenIDs", err)
		}
		filter.TokenIDs = append(filter.TokenIDs, domain.TokenID(id))
	}

	changes, total, err := r.service.Changes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}

	items := make([]any, 0, len(changes))
	for _, change := range changes {
		items = append(items, changeObject(change))
	}

	return fields{
		"items": func() any { return items },
		"total": func() any { return Uint64(total) },
		"nextAnchor": func() any {
			if n := len(changes); n > 0 && uint64(n) < total {
				return Uint64(changes[n-1].Cursor) //nolint:gosec,G115
			}
			return nil
		},
	}, nil
}

func changeObject(change *schema.ChangesJournal) object {
	return fields{
		"cursor":    func() any { return Uint64(change.Cursor) }, //nolint:gosec,G115
		"operation": func() any { return graphql.MarshalString(change.Operation) },
		"tokenID": func() any {
			if change.TokenID == nil {
				return nil
			}
			return Uint64(*change.TokenID)
		},
		"actor":     func() any { return graphql.MarshalString(change.Actor) },
		"timestamp": func() any { return Uint64(change.Timestamp) }, //nolint:gosec,G115
		"changedAt": func() any { return graphql.MarshalString(change.ChangedAt.UTC().Format(time.RFC3339Nano)) },
		"meta": func() any {
			if change.Meta == nil {
				return nil
			}
			return JSON(json.RawMessage(change.Meta))
		},
	}
}

// accountArg normalizes an account argument; blank values are rejected
func accountArg(args arguments, name string) (domain.Account, error) {
	raw, err := args.stringArg(name)
	if err != nil {
		return "", err
	}
	account := domain.NormalizeAccount(raw)
	if account.IsZero() {
		return "", argumentError(name, fmt.Errorf("must not be blank"))
	}
	return account, nil
}

// fields is an object whose fields take no arguments
type fields map[string]func() any

func (f fields) resolve(_ context.Context, name string, _ arguments) (any, error) {
	if fn, ok := f[name]; ok {
		return fn(), nil
	}
	return nil, fmt.Errorf("unknown field %s", name)
}
