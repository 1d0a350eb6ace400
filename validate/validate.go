// Package validate holds the field rules of the two public lead forms.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phbpx/haojia"
)

// Chinese mainland mobile numbers: 11 digits starting with 13-19.
var mobilePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// Messages shown next to a rejected field, keyed by the field's json name.
var messages = map[string]string{
	"name":         "姓名至少需要2个字符",
	"phone":        "请输入有效的手机号码",
	"region":       "请输入意向代理区域",
	"investment":   "请选择预计投入资金",
	"service_type": "请选择服务类型",
	"requirements": "请简要描述您的需求",
}

var rules = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("investment", func(fl validator.FieldLevel) bool {
		return slices.Contains(haojia.InvestmentBrackets, fl.Field().String())
	})

	return v
}

// Errors maps a field name to a human readable message. A nil or empty
// Errors means the form passed.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// PartnerForm is the raw input of the partner recruitment form.
type PartnerForm struct {
	Name       string `json:"name" validate:"min=2"`
	Phone      string `json:"phone" validate:"mobile"`
	Region     string `json:"region" validate:"min=2"`
	Experience string `json:"experience"`
	Investment string `json:"investment" validate:"required,investment"`
	Message    string `json:"message"`
}

// ConsultationForm is the raw input of the service consultation form.
type ConsultationForm struct {
	Name         string `json:"name" validate:"min=2"`
	Phone        string `json:"phone" validate:"mobile"`
	ServiceType  string `json:"service_type" validate:"oneof=furniture window"`
	Address      string `json:"address"`
	Requirements string `json:"requirements" validate:"min=5"`
}

// Partner checks f and returns the record to persist, or the failing fields.
// Text fields are trimmed first; the phone must match as entered.
func Partner(f PartnerForm) (haojia.PartnerApplication, Errors) {
	f = PartnerForm{
		Name:       strings.TrimSpace(f.Name),
		Phone:      f.Phone,
		Region:     strings.TrimSpace(f.Region),
		Experience: strings.TrimSpace(f.Experience),
		Investment: strings.TrimSpace(f.Investment),
		Message:    strings.TrimSpace(f.Message),
	}

	if errs := check(f); len(errs) > 0 {
		return haojia.PartnerApplication{}, errs
	}

	return haojia.PartnerApplication{
		Name:       f.Name,
		Phone:      f.Phone,
		Region:     f.Region,
		Experience: f.Experience,
		Investment: f.Investment,
		Message:    f.Message,
	}, nil
}

// Consultation checks f and returns the record to persist, or the failing fields.
func Consultation(f ConsultationForm) (haojia.Consultation, Errors) {
	f = ConsultationForm{
		Name:         strings.TrimSpace(f.Name),
		Phone:        f.Phone,
		ServiceType:  strings.TrimSpace(f.ServiceType),
		Address:      strings.TrimSpace(f.Address),
		Requirements: strings.TrimSpace(f.Requirements),
	}

	if errs := check(f); len(errs) > 0 {
		return haojia.Consultation{}, errs
	}

	return haojia.Consultation{
		Name:         f.Name,
		Phone:        f.Phone,
		ServiceType:  haojia.ServiceType(f.ServiceType),
		Address:      f.Address,
		Requirements: f.Requirements,
	}, nil
}

func check(form any) Errors {
	err := rules.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"form": err.Error()}
	}

	errs := make(Errors, len(verrs))
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		errs[fe.Field()] = msg
	}
	return errs
}
