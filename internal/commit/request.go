package commit

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/schedule"
)

// Request is the reviewed payload submitted for commit. Only items the
// reviewer kept are present; edits are already applied.
type Request struct {
	ParseRunID  string            `json:"parse_run_id" yaml:"parse_run_id" validate:"required"`
	UserID      string            `json:"user_id" yaml:"user_id" validate:"required"`
	Timezone    string            `json:"timezone,omitempty" yaml:"timezone" validate:"omitempty,timezone"`
	Course      CourseInput       `json:"course" yaml:"course"`
	Schedule    []MeetingInput    `json:"schedule,omitempty" yaml:"schedule" validate:"dive"`
	OfficeHours []MeetingInput    `json:"office_hours,omitempty" yaml:"office_hours" validate:"dive"`
	Assignments []AssignmentInput `json:"assignments,omitempty" yaml:"assignments" validate:"dive"`
}

// CourseInput is the edited course.
type CourseInput struct {
	Name         string             `json:"name" yaml:"name" validate:"notblank,max=200"`
	Professor    string             `json:"professor,omitempty" yaml:"professor" validate:"max=200"`
	Credits      *float64           `json:"credits,omitempty" yaml:"credits" validate:"omitempty,gte=0,lte=30"`
	GradeWeights map[string]float64 `json:"grade_weights,omitempty" yaml:"grade_weights" validate:"omitempty,dive,keys,notblank,endkeys,gte=0,lte=100"`
}

// MeetingInput is one weekly class or office-hours slot.
type MeetingInput struct {
	Day      string `json:"day" yaml:"day" validate:"required,weekday"`
	Start    string `json:"start" yaml:"start" validate:"required,clock"`
	End      string `json:"end" yaml:"end" validate:"required,clock"`
	Location string `json:"location,omitempty" yaml:"location"`
}

// AssignmentInput is one edited assignment. StagingItemID links it back to
// the staged candidate it came from.
type AssignmentInput struct {
	StagingItemID string   `json:"staging_item_id,omitempty" yaml:"staging_item_id"`
	Title         string   `json:"title" yaml:"title" validate:"notblank,max=300"`
	DueDate       string   `json:"due_date,omitempty" yaml:"due_date" validate:"omitempty,duedate"`
	Category      string   `json:"category,omitempty" yaml:"category"`
	EffortHours   *float64 `json:"effort_hours,omitempty" yaml:"effort_hours" validate:"omitempty,gte=0"`
	Pages         *int     `json:"pages,omitempty" yaml:"pages" validate:"omitempty,gte=0"`
}

var (
	validate   *validator.Validate
	translator ut.Translator

	customMessages = map[string]string{
		"notblank": "{0} cannot be blank",
		"weekday":  "{0} must be a day of the week",
		"clock":    "{0} must be a time of day such as 09:00 or 1:30 PM",
		"duedate":  "{0} must be a date (2006-01-02) or date-time",
	}
)

func init() {
	validate = validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseWeekday(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("duedate", func(fl validator.FieldLevel) bool {
		_, err := parseDueDate(fl.Field().String(), time.UTC)
		return err == nil
	})

	for tag, msg := range customMessages {
		_ = validate.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(fe.Tag(), fe.Field())
				return s
			},
		)
	}
}

// Validate checks the request shape and returns a validation *Error with
// per-field messages keyed by request path (e.g. "schedule[0].day").
func (r *Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newError(KindInternal, "validate commit request", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Translate(translator)
	}
	return validationError(fields)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var dueLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// parseDueDate interprets s in loc. A bare date means the end of that day
// (23:59 local); RFC 3339 values keep their own offset.
func parseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc), nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognized due date %q", s)
}
