package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryFood          Category = "food"
	CategoryFuel          Category = "fuel"
	CategoryBills         Category = "bills"
	CategoryShopping      Category = "shopping"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryTransport     Category = "transport"
	CategorySalary        Category = "salary"
	CategoryOther         Category = "other"
)

const (
	AssetGold       AssetType = "gold"
	AssetRealEstate AssetType = "realestate"
	AssetAccount    AssetType = "account"
	AssetOther      AssetType = "other"
)

// DefaultCycleStartDay is the start day given to newly created profiles.
const DefaultCycleStartDay = 23

const maxTextLength = 200

type (
	TransactionType string

	Category string

	AssetType string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       string
		UserID   string
		Type     TransactionType
		Amount   Money
		Category Category
		Note     string
		Date     time.Time
		// SourceRef is an idempotency key, unique per user when set.
		SourceRef string
	}

	Obligation struct {
		ID     string
		UserID string
		Name   string
		Amount Money
		Paid   bool
		// CycleID is the YYYY-MM period the obligation belongs to.
		CycleID           string
		PaidTransactionID string
		// PaidCycle is the financial cycle id the payment fell in, empty
		// while unpaid.
		PaidCycle string
	}

	Goal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      *time.Time
		CreatedAt     time.Time
	}

	Asset struct {
		ID        string
		UserID    string
		Name      string
		Type      AssetType
		Value     Money
		Note      string
		CreatedAt time.Time
	}

	UserProfile struct {
		UID           string
		Email         string
		DisplayName   string
		Balance       Money
		CycleStartDay int
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidCategory        = errors.New("invalid category")
	ErrInvalidAssetType       = errors.New("invalid asset type")
	ErrEmptyName              = errors.New("empty name")
	ErrTextTooLong            = errors.New("text too long (max 200 characters)")
	ErrMissingDate            = errors.New("date cannot be zero")
	ErrMissingUser            = errors.New("missing user id")
)

var categories = []Category{
	CategoryFood, CategoryFuel, CategoryBills, CategoryShopping, CategoryHealth,
	CategoryEducation, CategoryEntertainment, CategoryTransport, CategorySalary, CategoryOther,
}

var categoryLabels = map[Category]struct{ icon, label string }{
	CategoryFood:          {"🍔", "طعام"},
	CategoryFuel:          {"⛽", "وقود"},
	CategoryBills:         {"💡", "فواتير"},
	CategoryShopping:      {"🛍️", "تسوق"},
	CategoryHealth:        {"🏥", "صحة"},
	CategoryEducation:     {"📚", "تعليم"},
	CategoryEntertainment: {"🎮", "ترفيه"},
	CategoryTransport:     {"🚗", "مواصلات"},
	CategorySalary:        {"💰", "راتب"},
	CategoryOther:         {"📦", "أخرى"},
}

// Categories returns the closed set of transaction categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label of the category.
func (c Category) Label() string {
	return categoryLabels[c].label
}

// Icon returns the emoji shown next to the category.
func (c Category) Icon() string {
	return categoryLabels[c].icon
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (a AssetType) Valid() bool {
	switch a {
	case AssetGold, AssetRealEstate, AssetAccount, AssetOther:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m-o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// SignedCents is the balance effect of the transaction: positive for income,
// negative for expense.
func (t Transaction) SignedCents() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(t.Note) > maxTextLength {
		return ErrTextTooLong
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (o Obligation) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateName(o.Name); err != nil {
		return err
	}
	return o.Amount.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateName(g.Name); err != nil {
		return err
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the share of the target already reserved, capped at 1.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents)
	if p > 1 {
		return 1
	}
	return p
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateName(a.Name); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return ErrInvalidAssetType
	}
	if a.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	if len(a.Note) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}
