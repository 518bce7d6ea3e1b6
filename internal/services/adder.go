package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/utils"
)

const (
	DefaultQuantity = 1
	// DefaultPriority is the middle of the 1-5 priority scale.
	DefaultPriority = 3
	Currency        = "USD"
)

type AddStatus string

const (
	AddStatusAdded           AddStatus = "added"
	AddStatusSelectionNeeded AddStatus = "selection_needed"
)

type AddRequest struct {
	Token   string
	Product models.ProductResult
	// ListID is the explicit target from the page context; zero when
	// none was given.
	ListID models.ListID
	// Category overrides the product's own category when set.
	Category string
}

type AddOutcome struct {
	Status  AddStatus           `json:"status"`
	List    *models.TargetList  `json:"list,omitempty"`
	Item    *models.ListItem    `json:"item,omitempty"`
	Choices []models.TargetList `json:"choices,omitempty"`
	Message string              `json:"message"`
	ListURL string              `json:"listUrl,omitempty"`
}

// PendingAdd is the single slot marking the product currently being
// added.
type PendingAdd struct {
	mu  sync.Mutex
	key string
}

// Acquire claims the slot for key. It fails while any add is pending.
func (p *PendingAdd) Acquire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key != "" {
		return false
	}
	p.key = key
	return true
}

func (p *PendingAdd) Release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == key {
		p.key = ""
	}
}

// Current returns the identity in the slot, or "".
func (p *PendingAdd) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

// Adder appends search results to a needs list.
type Adder struct {
	store    upstream.ListStore
	cache    cache.Cache
	reporter errreport.Reporter
	pending  PendingAdd
}

func NewAdder(store upstream.ListStore, c cache.Cache, reporter errreport.Reporter) *Adder {
	if reporter == nil {
		reporter = errreport.Default(nil)
	}
	return &Adder{store: store, cache: c, reporter: reporter}
}

// Pending returns the identity of the product being added, if any.
func (a *Adder) Pending() string {
	return a.pending.Current()
}

// Add resolves the target list and appends the product. With several
// lists and no explicit target it returns a selection outcome without
// posting; calling Add again with the chosen ListID completes it.
func (a *Adder) Add(ctx context.Context, req AddRequest) (*AddOutcome, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, ErrAuthRequired
	}

	key := productIdentity(req.Product)
	if !a.pending.Acquire(key) {
		return nil, ErrAddInFlight
	}
	defer a.pending.Release(key)

	target, choices, err := a.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &AddOutcome{
			Status:  AddStatusSelectionNeeded,
			Choices: choices,
			Message: "Choose which needs list to add this item to.",
		}, nil
	}

	item, err := a.store.AddItem(ctx, req.Token, target.ID, ItemRequest(req.Product, req.Category))
	if err != nil {
		return nil, authOr(fmt.Errorf("add %q to list %s: %w", req.Product.Title, target.ID, err))
	}

	if a.cache != nil {
		if n, err := a.cache.InvalidatePrefix(ctx, cache.ListPrefix(target.ID)); err != nil {
			a.reporter.Report(ctx, "cache", err)
		} else if n > 0 {
			log.Printf("Invalidated %d cached views of list %s", n, target.ID)
		}
	}

	listName := "your needs list"
	if target.Title != "" {
		listName = target.Title
	}
	return &AddOutcome{
		Status:  AddStatusAdded,
		List:    target,
		Item:    item,
		Message: fmt.Sprintf("Added %q to %s.", req.Product.Title, listName),
		ListURL: ListURL(target.ID),
	}, nil
}

// resolveTarget returns the list to add to, or nil plus the choices when
// the caller has to pick.
func (a *Adder) resolveTarget(ctx context.Context, req AddRequest) (*models.TargetList, []models.TargetList, error) {
	if req.ListID != 0 {
		return &models.TargetList{ID: req.ListID}, nil, nil
	}

	lists, err := a.store.Lists(ctx, req.Token)
	if err != nil {
		return nil, nil, authOr(fmt.Errorf("load needs lists: %w", err))
	}

	switch len(lists) {
	case 0:
		return nil, nil, ErrNoTargetList
	case 1:
		return &lists[0], nil, nil
	default:
		return nil, lists, nil
	}
}

// ItemRequest maps a search result into the list-item body.
func ItemRequest(p models.ProductResult, category string) models.ListItemRequest {
	price := "0.00"
	if p.Price != nil {
		price = utils.NumericString(*p.Price)
	}
	if category == "" {
		category = p.Category
	}

	return models.ListItemRequest{
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       price,
		Currency:    Currency,
		ProductURL:  p.ProductURL,
		Retailer:    string(p.Retailer),
		Category:    MapCategory(category),
		Quantity:    DefaultQuantity,
		Priority:    DefaultPriority,
	}
}

func ListURL(id models.ListID) string {
	return "/wishlist/" + id.String()
}

func productIdentity(p models.ProductResult) string {
	for _, k := range []string{p.Key, p.ID, p.ProductURL, p.Title} {
		if k != "" {
			return k
		}
	}
	return "unknown"
}

// authOr turns a rejected session into ErrAuthRequired and leaves other
// errors alone.
func authOr(err error) error {
	var fe *upstream.FetchError
	if errors.As(err, &fe) && fe.Unauthorized() {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return err
}
