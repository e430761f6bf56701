package snapshot

import (
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/samber/lo"
)

// Validate checks that every required table was supplied. Empty tables are valid.
func (ds *Dataset) Validate() error {
	if ds == nil {
		return ierr.NewError("dataset is required").
			WithHint("A snapshot must be supplied to run the pipeline").
			Mark(ierr.ErrMissingInput)
	}

	missing := make([]string, 0)
	if ds.Customers == nil {
		missing = append(missing, "customers")
	}
	if ds.Products == nil {
		missing = append(missing, "products")
	}
	if ds.Transactions == nil {
		missing = append(missing, "transactions")
	}
	if ds.LineItems == nil {
		missing = append(missing, "line_items")
	}

	if len(missing) > 0 {
		return ierr.NewErrorf("required tables missing: %v", missing).
			WithHint("Customers, products, transactions and line items must be supplied").
			WithReportableDetails(map[string]any{
				"missing_tables": missing,
			}).
			Mark(ierr.ErrMissingInput)
	}
	return nil
}

// Index is the validated, lookup-ready view of a Dataset shared by every stage
// of a run. It is built once and never mutated afterwards.
type Index struct {
	Customers    map[string]*Customer
	Products     map[string]*Product
	Stores       map[string]*Store
	Rules        map[string]*LoyaltyRule
	Transactions map[string]*Transaction

	// CustomerList and ProductList keep input order
	CustomerList []*Customer
	ProductList  []*Product
	// Headers are the usable transactions in input order
	Headers []*Transaction
	// Lines are the line items whose transaction is usable, in input order
	Lines []*LineItem
}

// Index validates the dataset and builds the lookup maps. Malformed rows are
// dropped with a warning:
//   - transactions without a date
//   - transactions repeating an id already seen
//   - line items whose transaction is unknown or was dropped
func (ds *Dataset) Index(log *logger.Logger) (*Index, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	idx := &Index{
		Customers:    make(map[string]*Customer, len(ds.Customers)),
		Products:     make(map[string]*Product, len(ds.Products)),
		Stores:       make(map[string]*Store),
		Rules:        make(map[string]*LoyaltyRule),
		Transactions: make(map[string]*Transaction, len(ds.Transactions)),
		CustomerList: make([]*Customer, 0, len(ds.Customers)),
		ProductList:  make([]*Product, 0, len(ds.Products)),
		Headers:      make([]*Transaction, 0, len(ds.Transactions)),
		Lines:        make([]*LineItem, 0, len(ds.LineItems)),
	}

	for i := range ds.Customers {
		c := &ds.Customers[i]
		if _, ok := idx.Customers[c.ID]; ok {
			log.Warnw("duplicate customer ignored", "customer_id", c.ID)
			continue
		}
		idx.Customers[c.ID] = c
		idx.CustomerList = append(idx.CustomerList, c)
	}

	for i := range ds.Products {
		p := &ds.Products[i]
		if _, ok := idx.Products[p.SKU]; ok {
			log.Warnw("duplicate product ignored", "sku", p.SKU)
			continue
		}
		idx.Products[p.SKU] = p
		idx.ProductList = append(idx.ProductList, p)
	}

	stores := ds.Stores.OrEmpty()
	for i := range stores {
		if _, ok := idx.Stores[stores[i].ID]; !ok {
			idx.Stores[stores[i].ID] = &stores[i]
		}
	}

	rules := ds.LoyaltyRules.OrEmpty()
	for i := range rules {
		if _, ok := idx.Rules[rules[i].ID]; !ok {
			idx.Rules[rules[i].ID] = &rules[i]
		}
	}

	for i := range ds.Transactions {
		t := &ds.Transactions[i]
		if t.Date.IsZero() {
			log.Warnw("transaction without a date excluded", "transaction_id", t.ID)
			continue
		}
		if _, ok := idx.Transactions[t.ID]; ok {
			log.Warnw("duplicate transaction excluded", "transaction_id", t.ID)
			continue
		}
		idx.Transactions[t.ID] = t
		idx.Headers = append(idx.Headers, t)
	}

	orphans := make(map[string]struct{})
	for i := range ds.LineItems {
		li := &ds.LineItems[i]
		if _, ok := idx.Transactions[li.TransactionID]; !ok {
			log.WarnOnce(orphans, li.TransactionID, "line item without a known transaction excluded",
				"transaction_id", li.TransactionID, "sku", li.SKU)
			continue
		}
		idx.Lines = append(idx.Lines, li)
	}

	log.Debugw("snapshot indexed",
		"customers", len(idx.CustomerList),
		"products", len(idx.ProductList),
		"stores", len(idx.Stores),
		"rules", len(idx.Rules),
		"transactions", len(idx.Headers),
		"line_items", len(idx.Lines),
		"stores_supplied", ds.Stores.IsPresent(),
		"rules_supplied", ds.LoyaltyRules.IsPresent(),
	)

	return idx, nil
}

// CustomerIDs returns the ids of customers with at least one usable
// transaction, in order of their first transaction
func (idx *Index) CustomerIDs() []string {
	return lo.Uniq(lo.Map(idx.Headers, func(t *Transaction, _ int) string { return t.CustomerID }))
}

// Category returns the category of sku and whether the product is known
func (idx *Index) Category(sku string) (string, bool) {
	if p, ok := idx.Products[sku]; ok {
		return p.Category, true
	}
	return UnknownCategory, false
}

// UnknownCategory labels lines whose SKU is not in the catalog
const UnknownCategory = "Unknown"
