package cmd

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/suggest"
)

var (
	errTitleRequired = errors.New("title is required")
	errInvalidPrice  = errors.New("price must be a non-negative number")
)

// giftForm holds the bound values of the interactive gift form
type giftForm struct {
	Title       string
	Status      string
	Price       string
	URL         string
	Tags        string
	Description string
	PersonIDs   []int64

	form *huh.Form
}

func newGiftForm(people []models.Person) *giftForm {
	gf := &giftForm{Status: string(models.GiftStatusIdea)}
	gf.build(people)
	return gf
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errTitleRequired
	}
	return nil
}

func validatePrice(s string) error {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return errInvalidPrice
	}
	return nil
}

// build constructs the huh.Form. Validation runs on every field so an
// invalid form cannot be submitted.
func (gf *giftForm) build(people []models.Person) {
	statusOptions := make([]huh.Option[string], 0, len(models.ValidGiftStatuses()))
	for _, s := range models.ValidGiftStatuses() {
		statusOptions = append(statusOptions, huh.NewOption(string(s), string(s)))
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Value(&gf.Title).
			Placeholder("What is the gift?").
			Validate(validateTitle),
		huh.NewSelect[string]().
			Title("Status").
			Options(statusOptions...).
			Value(&gf.Status),
		huh.NewInput().
			Title("Price").
			Value(&gf.Price).
			Placeholder("Optional, e.g. 24.99").
			Validate(validatePrice),
		huh.NewInput().
			Title("Link").
			Value(&gf.URL).
			Placeholder("Optional URL"),
		huh.NewInput().
			Title("Tags").
			Value(&gf.Tags).
			Placeholder("Comma-separated"),
		huh.NewText().
			Title("Description").
			Value(&gf.Description).
			Placeholder("Optional description...").
			Lines(3),
	}

	if len(people) > 0 {
		opts := make([]huh.Option[int64], 0, len(people))
		for _, p := range people {
			opts = append(opts, huh.NewOption(p.Name, p.ID))
		}
		fields = append(fields, huh.NewMultiSelect[int64]().
			Title("For").
			Options(opts...).
			Value(&gf.PersonIDs))
	}

	gf.form = huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeDracula()).
		WithShowHelp(true)
}

// input converts the submitted values to a create body
func (gf *giftForm) input() (models.GiftInput, error) {
	if err := validateTitle(gf.Title); err != nil {
		return models.GiftInput{}, err
	}
	if err := validatePrice(gf.Price); err != nil {
		return models.GiftInput{}, err
	}
	in := models.GiftInput{
		Title:       strings.TrimSpace(gf.Title),
		Status:      models.GiftStatus(gf.Status),
		URL:         strings.TrimSpace(gf.URL),
		Tags:        splitTags(gf.Tags),
		Description: strings.TrimSpace(gf.Description),
		PersonIDs:   gf.PersonIDs,
	}
	if p := strings.TrimPrefix(strings.TrimSpace(gf.Price), "$"); p != "" {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(p, ",", ""), 64)
		in.Price = &v
	}
	return in, nil
}

// parseGiftStatus validates a status flag value
func parseGiftStatus(s string) (models.GiftStatus, error) {
	for _, v := range models.ValidGiftStatuses() {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	valid := make([]string, 0, len(models.ValidGiftStatuses()))
	for _, v := range models.ValidGiftStatuses() {
		valid = append(valid, string(v))
	}
	if dym := suggest.DidYouMean(s, valid); dym != "" {
		return "", usagef("invalid status %q, %s", s, dym)
	}
	return "", usagef("invalid status %q (valid: %s)", s, strings.Join(valid, ", "))
}
