package interrogation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/questionnaire"
	"github.com/mavunolabs/shamba/internal/store"
)

const surveyBid = 100

// SurveyDirectorID returns the stable director id for a survey title.
func SurveyDirectorID(title string) string {
	return "survey:" + domain.NormalizeSurveyTitle(title)
}

// SurveyDirector runs one named survey flow from its YAML definition. Answers
// land on a per-customer survey document as they arrive, so an interrupted
// respondent resumes at their first unanswered question. An optional quota
// cuts off respondents once enough finished documents share an answer to the
// quota question.
type SurveyDirector struct {
	def  *questionnaire.Definition
	repo store.Repository
	now  func() time.Time
}

// NewSurvey wires a survey flow from its definition.
func NewSurvey(def *questionnaire.Definition, repo store.Repository, now func() time.Time) *SurveyDirector {
	return &SurveyDirector{def: def, repo: repo, now: now}
}

// ID implements Director.
func (sd *SurveyDirector) ID() string { return SurveyDirectorID(sd.def.Title) }

// MakeBid bids only when the request is addressed to this survey by title and
// the customer has not already finished it.
func (sd *SurveyDirector) MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error) {
	if domain.NormalizeSurveyTitle(surveyTitle) != domain.NormalizeSurveyTitle(sd.def.Title) {
		return 0, nil
	}
	doc, err := sd.repo.GetSurvey(ctx, c.ID, domain.NormalizeSurveyTitle(sd.def.Title))
	if err != nil {
		return 0, err
	}
	if doc != nil && doc.Finished() {
		return 0, nil
	}
	return surveyBid, nil
}

// Hello implements Director.
func (sd *SurveyDirector) Hello(c *domain.Customer) string {
	return sd.def.GreetingText(sd.language(c))
}

// Goodbye implements Director.
func (sd *SurveyDirector) Goodbye(c *domain.Customer) string {
	return sd.def.FarewellText(sd.language(c))
}

// AskOrAnswer advances the survey one exchange.
func (sd *SurveyDirector) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	doc, err := sd.bindDocument(ctx, c, fs)
	if err != nil {
		return Result{}, err
	}
	if doc.Finished() {
		return Complete(), nil
	}

	lang := sd.language(c)
	for fs.Step < len(sd.def.Questions) {
		q := &sd.def.Questions[fs.Step]
		if _, answered := doc.Answer(q.Key); answered {
			fs.Step++
			continue
		}

		prompt := sd.prompt(q, lang)
		input = strings.TrimSpace(input)
		if input == "" {
			fs.StepBegun = true
			return Continue(prompt), nil
		}

		value, ok := sd.interpret(q, input)
		if !ok {
			return Continue(tryAgainPrefix + prompt), nil
		}
		if err := sd.repo.SaveSurveyAnswer(ctx, doc.ID, q.Key, value); err != nil {
			return Result{}, err
		}
		if doc.Responses == nil {
			doc.Responses = map[string]string{}
		}
		doc.Responses[q.Key] = value

		if sd.def.Quota != nil && q.Key == sd.def.Quota.Question {
			full, err := sd.quotaFull(ctx, q.Key, value)
			if err != nil {
				return Result{}, err
			}
			if full {
				// Cancel, not finish: the turned-away respondent's document
				// must never tighten the quota further.
				if err := sd.repo.CancelSurvey(ctx, doc.ID, sd.now()); err != nil {
					return Result{}, err
				}
				return Cancelled(sd.def.QuotaMessage(lang)), nil
			}
		}

		fs.Step++
		fs.StepBegun = false
		input = ""
	}

	if err := sd.repo.FinishSurvey(ctx, doc.ID, sd.now()); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}

// bindDocument loads or creates the customer's answer document and pins its
// id in flow state.
func (sd *SurveyDirector) bindDocument(ctx context.Context, c *domain.Customer, fs *FlowState) (*domain.CustomerSurvey, error) {
	title := domain.NormalizeSurveyTitle(sd.def.Title)
	doc, err := sd.repo.GetSurvey(ctx, c.ID, title)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &domain.CustomerSurvey{
			ID:         uuid.NewString(),
			CustomerID: c.ID,
			Title:      title,
			Language:   sd.language(c),
			Responses:  map[string]string{},
			CreatedAt:  sd.now(),
		}
		if err := sd.repo.CreateSurvey(ctx, doc); err != nil {
			return nil, err
		}
	}
	fs.SurveyID = doc.ID
	return doc, nil
}

func (sd *SurveyDirector) quotaFull(ctx context.Context, questionKey, answer string) (bool, error) {
	count, err := sd.repo.CountFinishedSurveys(ctx, domain.NormalizeSurveyTitle(sd.def.Title), questionKey, answer)
	if err != nil {
		return false, err
	}
	return count >= sd.def.Quota.Max, nil
}

func (sd *SurveyDirector) prompt(q *questionnaire.Question, lang string) string {
	text := q.Prompt(lang, sd.def.DefaultLanguage)
	if q.Kind != questionnaire.KindMenu {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
	}
	return b.String()
}

// interpret validates one answer against the question kind and returns the
// value to record.
func (sd *SurveyDirector) interpret(q *questionnaire.Question, input string) (string, bool) {
	switch q.Kind {
	case questionnaire.KindMenu:
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(q.Options) {
			return "", false
		}
		return q.Options[n-1], true
	case questionnaire.KindNumber:
		if _, err := strconv.ParseFloat(input, 64); err != nil {
			return "", false
		}
		return input, true
	default:
		if len(input) < q.MinLen {
			return "", false
		}
		return input, true
	}
}

func (sd *SurveyDirector) language(c *domain.Customer) string {
	if c.Language != "" {
		return c.Language
	}
	return sd.def.DefaultLanguage
}
