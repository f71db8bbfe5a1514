package interrogation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mavunolabs/shamba/internal/boundary"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/places"
	"github.com/mavunolabs/shamba/internal/store"
)

// RegistrationDirectorID is the registration flow's stable identity.
const RegistrationDirectorID = "registration"

const registrationBid = 10

// Default commodity vocabularies. Seed data can override these at wiring
// time; the lists here reflect the deployment's core coverage.
var (
	DefaultCrops = []string{
		"maize", "beans", "kale", "cassava", "sorghum", "millet",
		"rice", "sweet potato", "irish potato", "banana", "coffee",
		"tea", "sugarcane", "tomato", "onion", "cabbage", "groundnut",
	}
	DefaultLivestock = []string{
		"cattle", "goats", "sheep", "chicken", "pigs", "rabbits",
		"ducks", "donkeys", "bees", "fish",
	}
)

// WelcomeScheduler queues a delayed welcome message for a newly identified
// customer. Implementations must tolerate repeated scheduling for the same
// customer.
type WelcomeScheduler interface {
	Schedule(customerID, phone string)
}

// RegistrationDirector walks a customer through profile completion: region,
// name, sex, birthday, farm ownership and size, school, crops and livestock.
// Each unit is skipped when the profile already carries its answer, so the
// same director resumes cleanly for partially registered customers.
type RegistrationDirector struct {
	repo    store.Repository
	units   []Interrogator
	welcome WelcomeScheduler
}

// NewRegistration wires the registration flow.
func NewRegistration(repo store.Repository, resolver boundary.Resolver, schoolIndex *places.Index,
	country string, welcome WelcomeScheduler, now func() time.Time) *RegistrationDirector {
	units := []Interrogator{
		NewRegion("region", "Which region do you live in?", country, resolver, repo),
		NewFreeText("first_name", "What is your first name?", 2, TitleCase,
			func(c *domain.Customer) bool { return c.FirstName == "" },
			fieldSaver(repo, "first_name", func(c *domain.Customer, v string) { c.FirstName = v })),
		NewFreeText("last_name", "What is your last name?", 2, TitleCase,
			func(c *domain.Customer) bool { return c.LastName == "" },
			fieldSaver(repo, "last_name", func(c *domain.Customer, v string) { c.LastName = v })),
		NewMenu("sex", "What is your sex?",
			[]MenuOption{{Label: "Female", Value: "female"}, {Label: "Male", Value: "male"}},
			func(c *domain.Customer) bool { return c.Sex == "" },
			fieldSaver(repo, "sex", func(c *domain.Customer, v string) { c.Sex = v })),
		NewDate("date_of_birth", "What is your date of birth? (e.g. 11-Dec-1985 or just 1985)", true,
			func(c *domain.Customer) bool { return c.DateOfBirth == nil },
			func(ctx context.Context, c *domain.Customer, value time.Time) error {
				if err := repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"date_of_birth": value.Unix()}); err != nil {
					return err
				}
				c.DateOfBirth = &value
				return nil
			}),
		NewMenu("owns_farm", "Do you own a farm?",
			[]MenuOption{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
			func(c *domain.Customer) bool { return c.OwnsFarm == nil },
			func(ctx context.Context, c *domain.Customer, value string) error {
				owns := value == "yes"
				if err := repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"owns_farm": owns}); err != nil {
					return err
				}
				c.OwnsFarm = &owns
				return nil
			}),
		NewNumber("farm_size", "How many acres is your farm?",
			func(c *domain.Customer) bool { return c.OwnsFarm != nil && *c.OwnsFarm && c.FarmSizeAcres == nil },
			func(ctx context.Context, c *domain.Customer, value float64) error {
				if err := repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"farm_size_acres": value}); err != nil {
					return err
				}
				c.FarmSizeAcres = &value
				return nil
			}),
		NewSchool("school", "What is the name of the school nearest to you?", schoolIndex, repo),
		NewCropDialog("crops", DefaultCrops, repo, now),
		NewCommodity("livestock", domain.CommodityLivestock,
			"What livestock do you keep? (e.g. cattle and goats, or \"none\")",
			DefaultLivestock, repo,
			func(c *domain.Customer) bool { return !c.IsRegistered && len(c.Livestock) == 0 }),
	}
	return &RegistrationDirector{repo: repo, units: units, welcome: welcome}
}

// ID implements Director.
func (rd *RegistrationDirector) ID() string { return RegistrationDirectorID }

// MakeBid bids a flat amount whenever any profile attribute is still missing.
func (rd *RegistrationDirector) MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error) {
	for _, u := range rd.units {
		if u.IsNeeded(c) {
			return registrationBid, nil
		}
	}
	return 0, nil
}

// Hello implements Director.
func (rd *RegistrationDirector) Hello(c *domain.Customer) string {
	if c.HasName() {
		return fmt.Sprintf("Welcome back, %s! Let's finish your registration.", c.FirstName)
	}
	return "Welcome to Shamba! Let's get you registered."
}

// Goodbye implements Director.
func (rd *RegistrationDirector) Goodbye(c *domain.Customer) string {
	name := strings.TrimSpace(c.FirstName)
	if name == "" {
		return "Thank you! Your registration is complete."
	}
	return fmt.Sprintf("Thank you, %s! Your registration is complete.", name)
}

// AskOrAnswer advances the flow: the current unit consumes the input, then
// control moves through any units the profile no longer needs until one asks
// a question or the list is exhausted.
func (rd *RegistrationDirector) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	for fs.Step < len(rd.units) {
		unit := rd.units[fs.Step]
		// A begun unit always finishes, even if its IsNeeded went false
		// mid-flight (another channel may have filled the field).
		if !fs.StepBegun && !unit.IsNeeded(c) {
			fs.Step++
			continue
		}

		res, err := unit.AskOrAnswer(ctx, c, input, fs)
		if err != nil {
			return Result{}, err
		}
		switch res.Kind {
		case ResultContinue:
			fs.StepBegun = true
			return res, nil
		case ResultComplete:
			fs.Step++
			fs.StepBegun = false
			fs.FsmState = ""
			input = ""
			rd.maybeScheduleWelcome(c)
		default:
			return res, nil
		}
	}

	if !c.IsRegistered {
		if err := rd.repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"is_registered": true}); err != nil {
			return Result{}, err
		}
		c.IsRegistered = true
	}
	rd.maybeScheduleWelcome(c)
	return Complete(), nil
}

// maybeScheduleWelcome queues the welcome message as soon as the profile is
// addressable (name plus region). The scheduler is idempotent, so repeat
// calls only push the send time back.
func (rd *RegistrationDirector) maybeScheduleWelcome(c *domain.Customer) {
	if rd.welcome == nil {
		return
	}
	if c.HasName() && c.HasLocation() {
		rd.welcome.Schedule(c.ID, c.Phone)
	}
}

// fieldSaver builds a save callback doing a single-column update plus the
// matching in-memory mutation.
func fieldSaver(repo store.Repository, column string, apply func(c *domain.Customer, v string)) func(ctx context.Context, c *domain.Customer, value string) error {
	return func(ctx context.Context, c *domain.Customer, value string) error {
		if err := repo.UpdateCustomerFields(ctx, c.ID, map[string]any{column: value}); err != nil {
			return err
		}
		apply(c, value)
		return nil
	}
}
