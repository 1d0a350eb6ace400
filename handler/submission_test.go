package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/notify"
	"github.com/phbpx/haojia/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPartner = `{"name":"张三","phone":"13800001111","region":"广东省佛山市","investment":"10-30万","message":"想了解加盟"}`

func TestCreatePartnerApplication(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(jsonRequest(http.MethodPost, "/api/partner-applications", validPartner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "张三", body["name"])
	assert.NotContains(t, body, "experience")

	require.Len(t, e.transport.sent, 1)
	assert.Equal(t, notify.PartnerSubject, e.transport.sent[0].Subject)
	assert.Contains(t, e.transport.sent[0].HTML, "行业经验：</strong>未填写")
}

func TestCreatePartnerApplicationInvalid(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(jsonRequest(http.MethodPost, "/api/partner-applications",
		`{"name":"张","phone":"12345","region":"佛山","investment":""}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, map[string]interface{}{
		"name":       "姓名至少需要2个字符",
		"phone":      "请输入有效的手机号码",
		"investment": "请选择预计投入资金",
	}, body["fields"])

	assert.Zero(t, e.apps.creates)
	assert.Zero(t, e.transport.count())
}

func TestCreatePartnerApplicationStoreFailure(t *testing.T) {
	e := newEnv(t, configured)
	e.apps.err = assert.AnError

	rec := e.do(jsonRequest(http.MethodPost, "/api/partner-applications", validPartner))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": submission.FailureMessage}, decodeBody(t, rec))
	assert.Zero(t, e.transport.count())
}

func TestCreatePartnerApplicationRelayFailure(t *testing.T) {
	e := newEnv(t, configured)
	e.transport.err = assert.AnError

	rec := e.do(jsonRequest(http.MethodPost, "/api/partner-applications", validPartner))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, e.apps.apps, 1)
}

func TestCreateConsultation(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(jsonRequest(http.MethodPost, "/api/consultations",
		`{"name":" 李四 ","phone":"13912345678","service_type":"window","requirements":"阳台玻璃贴膜"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "李四", body["name"])
	assert.Equal(t, "new", body["status"])
	assert.Equal(t, "window", body["service_type"])

	assert.Zero(t, e.transport.count())
}

func TestCreateConsultationBadBody(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(jsonRequest(http.MethodPost, "/api/consultations", `not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, e.cons.creates)
}

func TestPartnerPage(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(httptestGet("/partner"))
	require.Equal(t, http.StatusOK, rec.Code)

	html := rec.Body.String()
	for _, b := range haojia.InvestmentBrackets {
		assert.Contains(t, html, `<option value="`+b+`">`)
	}
	assert.Contains(t, html, "b.disabled=true")
	assert.NotContains(t, html, "申请提交成功")
}

func TestSubmitPartnerPage(t *testing.T) {
	e := newEnv(t, configured)

	form := url.Values{
		"name":       {"张三"},
		"phone":      {"13800001111"},
		"region":     {"广东省佛山市"},
		"investment": {"50万以上"},
	}

	rec := e.do(formRequest("/partner", form))
	require.Equal(t, http.StatusOK, rec.Code)

	html := rec.Body.String()
	assert.Contains(t, html, "申请提交成功！")
	assert.Contains(t, html, `<a href="/partner">返回</a>`)
	assert.NotContains(t, html, "13800001111")
	assert.Len(t, e.apps.apps, 1)
	assert.Equal(t, 1, e.transport.count())
}

func TestSubmitPartnerPageInvalid(t *testing.T) {
	e := newEnv(t, configured)

	form := url.Values{
		"name":       {"张三"},
		"phone":      {"1380000"},
		"region":     {"佛山"},
		"investment": {"100万"},
	}

	rec := e.do(formRequest("/partner", form))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	html := rec.Body.String()
	assert.Contains(t, html, "请输入有效的手机号码")
	assert.Contains(t, html, "请选择预计投入资金")
	assert.NotContains(t, html, "姓名至少需要2个字符")
	assert.Contains(t, html, `value="张三"`)
	assert.Zero(t, e.apps.creates)
}

func TestSubmitContactPageStoreFailure(t *testing.T) {
	e := newEnv(t, configured)
	e.cons.err = assert.AnError

	form := url.Values{
		"name":         {"李四"},
		"phone":        {"13912345678"},
		"service_type": {"furniture"},
		"requirements": {"衣柜改成白色"},
	}

	rec := e.do(formRequest("/contact", form))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	html := rec.Body.String()
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "衣柜改成白色")
	assert.Equal(t, 1, e.cons.creates)
}

func TestSubmitContactPage(t *testing.T) {
	e := newEnv(t, configured)

	form := url.Values{
		"name":         {"李四"},
		"phone":        {"13912345678"},
		"service_type": {"furniture"},
		"requirements": {"衣柜改成白色"},
	}

	rec := e.do(formRequest("/contact", form))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "咨询提交成功！")
	assert.Equal(t, haojia.ServiceFurniture, e.cons.cons[0].ServiceType)
}

func TestContactPageServicePreselect(t *testing.T) {
	tests := []struct {
		query    string
		selected string
	}{
		{query: "?service=window", selected: `<option value="window" selected>`},
		{query: "?service=furniture", selected: `<option value="furniture" selected>`},
		{query: "?service=roof", selected: ""},
		{query: "", selected: ""},
	}

	e := newEnv(t, configured)

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := e.do(httptestGet("/contact" + tt.query))
			require.Equal(t, http.StatusOK, rec.Code)

			html := rec.Body.String()
			if tt.selected == "" {
				assert.NotContains(t, html, " selected>")
				return
			}
			assert.Contains(t, html, tt.selected)
			assert.Equal(t, 1, strings.Count(html, " selected>"))
		})
	}
}
