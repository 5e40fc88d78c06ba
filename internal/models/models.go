package models

import (
	"time"
)

// GiftStatus represents where a gift is in its lifecycle
type GiftStatus string

const (
	GiftStatusIdea      GiftStatus = "idea"
	GiftStatusPlanned   GiftStatus = "planned"
	GiftStatusPurchased GiftStatus = "purchased"
	GiftStatusWrapped   GiftStatus = "wrapped"
	GiftStatusGiven     GiftStatus = "given"
)

// ListKind represents the purpose of a gift list
type ListKind string

const (
	ListKindWishlist ListKind = "wishlist"
	ListKindIdeas    ListKind = "ideas"
	ListKindShopping ListKind = "shopping"
)

// OccasionKind represents the type of occasion
type OccasionKind string

const (
	OccasionBirthday    OccasionKind = "birthday"
	OccasionHoliday     OccasionKind = "holiday"
	OccasionAnniversary OccasionKind = "anniversary"
	OccasionOther       OccasionKind = "other"
)

// CommentEntity is the kind of entity a comment is attached to
type CommentEntity string

const (
	CommentOnGift     CommentEntity = "gift"
	CommentOnList     CommentEntity = "list"
	CommentOnOccasion CommentEntity = "occasion"
	CommentOnPerson   CommentEntity = "person"
)

// Person is a family member or friend who gives or receives gifts
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	GroupIDs  []int64   `json:"group_ids,omitempty"`
	Sizes     Sizes     `json:"sizes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sizes holds clothing and shoe sizes used when shopping
type Sizes struct {
	Shirt string `json:"shirt,omitempty"`
	Pants string `json:"pants,omitempty"`
	Shoe  string `json:"shoe,omitempty"`
}

// PersonInput is the create/update body for a person
type PersonInput struct {
	Name     string  `json:"name"`
	Nickname string  `json:"nickname,omitempty"`
	Birthday string  `json:"birthday,omitempty"`
	Notes    string  `json:"notes,omitempty"`
	GroupIDs []int64 `json:"group_ids,omitempty"`
	Sizes    Sizes   `json:"sizes,omitempty"`
}

// Gift is a gift idea or purchase
type Gift struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Status      GiftStatus `json:"status"`
	Tags        []string   `json:"tags,omitempty"`
	PersonIDs   []int64    `json:"person_ids,omitempty"`
	PurchaserID *int64     `json:"purchaser_id,omitempty"`
	OccasionID  *int64     `json:"occasion_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GiftInput is the create/update body for a gift
type GiftInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Status      GiftStatus `json:"status,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PersonIDs   []int64    `json:"person_ids,omitempty"`
	PurchaserID *int64     `json:"purchaser_id,omitempty"`
	OccasionID  *int64     `json:"occasion_id,omitempty"`
}

// List is a named collection of gift items, usually tied to an occasion
type List struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Kind       ListKind  `json:"kind"`
	PersonID   *int64    `json:"person_id,omitempty"`
	OccasionID *int64    `json:"occasion_id,omitempty"`
	ItemCount  int       `json:"item_count"`
	DoneCount  int       `json:"done_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListInput is the create/update body for a list
type ListInput struct {
	Name       string   `json:"name"`
	Kind       ListKind `json:"kind,omitempty"`
	PersonID   *int64   `json:"person_id,omitempty"`
	OccasionID *int64   `json:"occasion_id,omitempty"`
}

// ListItem is a gift placed on a list
type ListItem struct {
	ID        int64      `json:"id"`
	ListID    int64      `json:"list_id"`
	GiftID    int64      `json:"gift_id"`
	Gift      *Gift      `json:"gift,omitempty"`
	Status    GiftStatus `json:"status"`
	Position  int        `json:"position"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListItemInput is the create/update body for a list item
type ListItemInput struct {
	GiftID   int64      `json:"gift_id,omitempty"`
	Status   GiftStatus `json:"status,omitempty"`
	Position *int       `json:"position,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

// Occasion is a dated event gifts are given for
type Occasion struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Kind      OccasionKind `json:"kind"`
	Date      string       `json:"date"`
	Recurring bool         `json:"recurring"`
	PersonIDs []int64      `json:"person_ids,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OccasionInput is the create/update body for an occasion
type OccasionInput struct {
	Name      string       `json:"name"`
	Kind      OccasionKind `json:"kind,omitempty"`
	Date      string       `json:"date"`
	Recurring bool         `json:"recurring"`
	PersonIDs []int64      `json:"person_ids,omitempty"`
}

// Group is a named set of people (a household, a side of the family)
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	MemberIDs []int64   `json:"member_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupInput is the create/update body for a group
type GroupInput struct {
	Name      string  `json:"name"`
	Color     string  `json:"color,omitempty"`
	MemberIDs []int64 `json:"member_ids,omitempty"`
}

// FieldOption is a user-defined choice for a configurable field (tags, stores, sizes)
type FieldOption struct {
	ID       int64  `json:"id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// FieldOptionInput is the create/update body for a field option
type FieldOptionInput struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Label    string `json:"label,omitempty"`
	Position *int   `json:"position,omitempty"`
}

// RoleBudget is the budget and spend for one role (recipient or purchaser)
type RoleBudget struct {
	Budget         *float64 `json:"budget"`
	GiftCount      int      `json:"gift_count"`
	PurchasedTotal float64  `json:"purchased_total"`
	PlannedTotal   float64  `json:"planned_total"`
}

// PersonBudget is the per-person budget summary, optionally scoped to an occasion
type PersonBudget struct {
	PersonID   int64      `json:"person_id"`
	OccasionID *int64     `json:"occasion_id,omitempty"`
	Recipient  RoleBudget `json:"recipient"`
	Purchaser  RoleBudget `json:"purchaser"`
}

// BudgetInput sets the budgets for a person. A nil value clears the budget.
type BudgetInput struct {
	OccasionID      *int64   `json:"occasion_id,omitempty"`
	RecipientBudget *float64 `json:"recipient_budget"`
	PurchaserBudget *float64 `json:"purchaser_budget"`
}

// Comment is a note left on a gift, list, occasion or person
type Comment struct {
	ID         int64         `json:"id"`
	EntityType CommentEntity `json:"entity_type"`
	EntityID   int64         `json:"entity_id"`
	AuthorID   int64         `json:"author_id"`
	AuthorName string        `json:"author_name,omitempty"`
	Body       string        `json:"body"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CommentInput is the create/update body for a comment
type CommentInput struct {
	EntityType CommentEntity `json:"entity_type,omitempty"`
	EntityID   int64         `json:"entity_id,omitempty"`
	Body       string        `json:"body"`
}

// Activity is an entry in the family activity feed
type Activity struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// Page is one page of a cursor-paginated list response
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// PageParams are the cursor pagination parameters shared by list endpoints
type PageParams struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// PersonFilter filters GET /persons
type PersonFilter struct {
	PageParams
	GroupID int64 `json:"group_id,omitempty"`
}

// GiftFilter filters GET /gifts
type GiftFilter struct {
	PageParams
	PersonIDs []int64    `json:"person_ids,omitempty"`
	Status    GiftStatus `json:"status,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Search    string     `json:"search,omitempty"`
}

// ListFilter filters GET /lists
type ListFilter struct {
	PageParams
	OccasionID int64 `json:"occasion_id,omitempty"`
	PersonID   int64 `json:"person_id,omitempty"`
}

// OccasionFilter filters GET /occasions
type OccasionFilter struct {
	PageParams
	Upcoming bool `json:"upcoming,omitempty"`
}

// FieldOptionFilter filters GET /field-options
type FieldOptionFilter struct {
	PageParams
	Field string `json:"field,omitempty"`
}

// CommentFilter filters GET /comments
type CommentFilter struct {
	PageParams
	EntityType CommentEntity `json:"entity_type"`
	EntityID   int64         `json:"entity_id"`
}

// ValidGiftStatuses returns the gift statuses the server accepts
func ValidGiftStatuses() []GiftStatus {
	return []GiftStatus{GiftStatusIdea, GiftStatusPlanned, GiftStatusPurchased, GiftStatusWrapped, GiftStatusGiven}
}

// IsValidGiftStatus checks if a status is valid
func IsValidGiftStatus(s GiftStatus) bool {
	for _, v := range ValidGiftStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// IsDone reports whether a gift in this status has already been bought
func (s GiftStatus) IsDone() bool {
	return s == GiftStatusPurchased || s == GiftStatusWrapped || s == GiftStatusGiven
}

// IsValidCommentEntity checks if a comment target is valid
func IsValidCommentEntity(e CommentEntity) bool {
	switch e {
	case CommentOnGift, CommentOnList, CommentOnOccasion, CommentOnPerson:
		return true
	}
	return false
}
