package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/marcus/giftwell/internal/models"
)

// --- Persons ---

// ListPersons fetches one page of persons.
func (c *Client) ListPersons(ctx context.Context, f models.PersonFilter) (*models.Page[models.Person], error) {
	var page models.Page[models.Person]
	if err := c.get(ctx, "/persons", personValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPerson fetches a single person.
func (c *Client) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	var p models.Person
	if err := c.get(ctx, fmt.Sprintf("/persons/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePerson creates a person.
func (c *Client) CreatePerson(ctx context.Context, in models.PersonInput) (*models.Person, error) {
	var p models.Person
	if err := c.do(ctx, http.MethodPost, "/persons", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePerson replaces a person's editable fields.
func (c *Client) UpdatePerson(ctx context.Context, id int64, in models.PersonInput) (*models.Person, error) {
	var p models.Person
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/persons/%d", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePerson deletes a person.
func (c *Client) DeletePerson(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/persons/%d", id), nil, nil)
}

// --- Gifts ---

// ListGifts fetches one page of gifts.
func (c *Client) ListGifts(ctx context.Context, f models.GiftFilter) (*models.Page[models.Gift], error) {
	var page models.Page[models.Gift]
	if err := c.get(ctx, "/gifts", giftValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetGift fetches a single gift.
func (c *Client) GetGift(ctx context.Context, id int64) (*models.Gift, error) {
	var g models.Gift
	if err := c.get(ctx, fmt.Sprintf("/gifts/%d", id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGift creates a gift.
func (c *Client) CreateGift(ctx context.Context, in models.GiftInput) (*models.Gift, error) {
	var g models.Gift
	if err := c.do(ctx, http.MethodPost, "/gifts", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGift replaces a gift's editable fields.
func (c *Client) UpdateGift(ctx context.Context, id int64, in models.GiftInput) (*models.Gift, error) {
	var g models.Gift
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/gifts/%d", id), in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGift deletes a gift.
func (c *Client) DeleteGift(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/gifts/%d", id), nil, nil)
}

// IdeasInbox fetches unassigned gift ideas, newest first.
func (c *Client) IdeasInbox(ctx context.Context, limit int) (*models.Page[models.Gift], error) {
	var page models.Page[models.Gift]
	if err := c.get(ctx, "/ideas/inbox", pageValues(models.PageParams{Limit: limit}), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// --- Lists ---

// ListLists fetches one page of gift lists.
func (c *Client) ListLists(ctx context.Context, f models.ListFilter) (*models.Page[models.List], error) {
	var page models.Page[models.List]
	if err := c.get(ctx, "/lists", listValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetList fetches a single list.
func (c *Client) GetList(ctx context.Context, id int64) (*models.List, error) {
	var l models.List
	if err := c.get(ctx, fmt.Sprintf("/lists/%d", id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateList creates a list.
func (c *Client) CreateList(ctx context.Context, in models.ListInput) (*models.List, error) {
	var l models.List
	if err := c.do(ctx, http.MethodPost, "/lists", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateList replaces a list's editable fields.
func (c *Client) UpdateList(ctx context.Context, id int64, in models.ListInput) (*models.List, error) {
	var l models.List
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/lists/%d", id), in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteList deletes a list.
func (c *Client) DeleteList(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/lists/%d", id), nil, nil)
}

// --- List items ---

// ListItems fetches one page of the items on a list.
func (c *Client) ListItems(ctx context.Context, listID int64, p models.PageParams) (*models.Page[models.ListItem], error) {
	var page models.Page[models.ListItem]
	if err := c.get(ctx, fmt.Sprintf("/lists/%d/items", listID), pageValues(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateListItem adds an item to a list.
func (c *Client) CreateListItem(ctx context.Context, listID int64, in models.ListItemInput) (*models.ListItem, error) {
	var it models.ListItem
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lists/%d/items", listID), in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateListItem updates an item on a list.
func (c *Client) UpdateListItem(ctx context.Context, listID, itemID int64, in models.ListItemInput) (*models.ListItem, error) {
	var it models.ListItem
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/lists/%d/items/%d", listID, itemID), in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteListItem removes an item from a list.
func (c *Client) DeleteListItem(ctx context.Context, listID, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/lists/%d/items/%d", listID, itemID), nil, nil)
}

// --- Occasions ---

// ListOccasions fetches one page of occasions.
func (c *Client) ListOccasions(ctx context.Context, f models.OccasionFilter) (*models.Page[models.Occasion], error) {
	var page models.Page[models.Occasion]
	if err := c.get(ctx, "/occasions", occasionValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOccasion fetches a single occasion.
func (c *Client) GetOccasion(ctx context.Context, id int64) (*models.Occasion, error) {
	var o models.Occasion
	if err := c.get(ctx, fmt.Sprintf("/occasions/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOccasion creates an occasion.
func (c *Client) CreateOccasion(ctx context.Context, in models.OccasionInput) (*models.Occasion, error) {
	var o models.Occasion
	if err := c.do(ctx, http.MethodPost, "/occasions", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOccasion replaces an occasion's editable fields.
func (c *Client) UpdateOccasion(ctx context.Context, id int64, in models.OccasionInput) (*models.Occasion, error) {
	var o models.Occasion
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/occasions/%d", id), in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteOccasion deletes an occasion.
func (c *Client) DeleteOccasion(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/occasions/%d", id), nil, nil)
}

// --- Groups ---

// ListGroups fetches one page of groups.
func (c *Client) ListGroups(ctx context.Context, p models.PageParams) (*models.Page[models.Group], error) {
	var page models.Page[models.Group]
	if err := c.get(ctx, "/groups", pageValues(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetGroup fetches a single group.
func (c *Client) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	var g models.Group
	if err := c.get(ctx, fmt.Sprintf("/groups/%d", id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	var g models.Group
	if err := c.do(ctx, http.MethodPost, "/groups", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGroup replaces a group's editable fields.
func (c *Client) UpdateGroup(ctx context.Context, id int64, in models.GroupInput) (*models.Group, error) {
	var g models.Group
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/groups/%d", id), in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%d", id), nil, nil)
}

// --- Field options ---

// ListFieldOptions fetches the configured options, optionally for one field.
func (c *Client) ListFieldOptions(ctx context.Context, f models.FieldOptionFilter) (*models.Page[models.FieldOption], error) {
	var page models.Page[models.FieldOption]
	if err := c.get(ctx, "/field-options", fieldOptionValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateFieldOption creates a field option.
func (c *Client) CreateFieldOption(ctx context.Context, in models.FieldOptionInput) (*models.FieldOption, error) {
	var fo models.FieldOption
	if err := c.do(ctx, http.MethodPost, "/field-options", in, &fo); err != nil {
		return nil, err
	}
	return &fo, nil
}

// UpdateFieldOption updates a field option.
func (c *Client) UpdateFieldOption(ctx context.Context, id int64, in models.FieldOptionInput) (*models.FieldOption, error) {
	var fo models.FieldOption
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/field-options/%d", id), in, &fo); err != nil {
		return nil, err
	}
	return &fo, nil
}

// DeleteFieldOption deletes a field option.
func (c *Client) DeleteFieldOption(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/field-options/%d", id), nil, nil)
}

// --- Budgets ---

// GetPersonBudget fetches a person's budget summary, optionally scoped to an
// occasion.
func (c *Client) GetPersonBudget(ctx context.Context, personID int64, occasionID *int64) (*models.PersonBudget, error) {
	v := url.Values{}
	if occasionID != nil {
		v.Set("occasion_id", strconv.FormatInt(*occasionID, 10))
	}
	var b models.PersonBudget
	if err := c.get(ctx, fmt.Sprintf("/budgets/persons/%d", personID), v, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// SetPersonBudget sets or clears a person's budgets.
func (c *Client) SetPersonBudget(ctx context.Context, personID int64, in models.BudgetInput) (*models.PersonBudget, error) {
	var b models.PersonBudget
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/budgets/persons/%d", personID), in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// --- Comments ---

// ListComments fetches the comments on an entity.
func (c *Client) ListComments(ctx context.Context, f models.CommentFilter) (*models.Page[models.Comment], error) {
	var page models.Page[models.Comment]
	if err := c.get(ctx, "/comments", commentValues(f), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateComment posts a comment.
func (c *Client) CreateComment(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	var cm models.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", in, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// UpdateComment edits a comment body.
func (c *Client) UpdateComment(ctx context.Context, id int64, in models.CommentInput) (*models.Comment, error) {
	var cm models.Comment
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/comments/%d", id), in, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}

// --- Activity ---

// RecentActivity fetches the latest activity feed entries.
func (c *Client) RecentActivity(ctx context.Context, limit int) (*models.Page[models.Activity], error) {
	var page models.Page[models.Activity]
	if err := c.get(ctx, "/activity/recent", pageValues(models.PageParams{Limit: limit}), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
