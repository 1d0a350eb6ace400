// Package notify tells operators about new partner applications by way of the
// email relay.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/phbpx/haojia"
)

// PartnerSubject is the subject line of every partner notification.
const PartnerSubject = "【新申请】收到新的城市合伙人申请"

// TimeLayout formats the submission timestamp in notification bodies.
const TimeLayout = "2006/1/2 15:04:05"

var partnerBody = template.Must(template.New("partner").Parse(`
<h2>新合伙人申请</h2>
<p><strong>姓名：</strong>{{.Name}}</p>
<p><strong>电话：</strong>{{.Phone}}</p>
<p><strong>意向区域：</strong>{{.Region}}</p>
<p><strong>预计投资：</strong>{{.Investment}}</p>
<p><strong>行业经验：</strong>{{or .Experience "未填写"}}</p>
<p><strong>留言：</strong>{{or .Message "无"}}</p>
<p>提交时间：{{.SubmittedAt}}</p>
`))

// Relay delivers a subject and rendered HTML body.
type Relay interface {
	Send(ctx context.Context, subject, html string) error
}

// Partner composes and sends the partner application notification.
type Partner struct {
	relay Relay
	loc   *time.Location
	now   func() time.Time
}

func NewPartner(relay Relay, loc *time.Location) *Partner {
	if loc == nil {
		loc = time.UTC
	}
	return &Partner{
		relay: relay,
		loc:   loc,
		now:   time.Now,
	}
}

// Notify sends one email describing app.
func (p *Partner) Notify(ctx context.Context, app haojia.PartnerApplication) error {
	body, err := p.Body(app)
	if err != nil {
		return err
	}
	return p.relay.Send(ctx, PartnerSubject, body)
}

// Body renders the HTML body for app. The submission time is the record's
// creation time, or now when the store did not report one.
func (p *Partner) Body(app haojia.PartnerApplication) (string, error) {
	submitted := app.CreatedAt
	if submitted.IsZero() {
		submitted = p.now()
	}

	data := struct {
		haojia.PartnerApplication
		SubmittedAt string
	}{
		PartnerApplication: app,
		SubmittedAt:        submitted.In(p.loc).Format(TimeLayout),
	}

	var b bytes.Buffer
	if err := partnerBody.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render partner notification: %w", err)
	}
	return b.String(), nil
}
