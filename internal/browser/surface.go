package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-ronin-automation/internal/form"
	"go-ronin-automation/utils"
)

// controlSelector matches every interactable control inside the application
// form, in document order.
const controlSelector = "form input, form select, form textarea"

// successSelectors indicate the site confirmed the submission.
var successSelectors = []string{
	"[data-automation='application-success']",
	"[data-testid='application-success']",
	"#applicationSent",
}

// advanceSelectors are tried in order to move to the next page or submit.
var advanceSelectors = []string{
	"[data-testid='continue-button']",
	"button[data-automation='continue-button']",
	"[data-testid='review-submit-application']",
	"button[type='submit']",
}

// challengeSelectors cover the usual anti-automation widgets.
const challengeSelectors = "iframe[src*='recaptcha'], iframe[src*='hcaptcha'], iframe[src*='turnstile'], .captcha, [data-captcha]"

// FormSurface drives one application form through a Playwright page. It
// implements form.Surface.
type FormSurface struct {
	page  playwright.Page
	shots *utils.ScreenshotDebugger
	log   *slog.Logger

	// signature of the page last enumerated, used to detect a page change
	lastSignature string
}

func NewFormSurface(page playwright.Page, log *slog.Logger) *FormSurface {
	return &FormSurface{
		page:  page,
		shots: utils.NewScreenshotDebugger(log),
		log:   log,
	}
}

// OpenApplication navigates to the posting and clicks through to its
// application form.
func (s *FormSurface) OpenApplication(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return s.wrap(err)
	}
	utils.RandomDelay(1000, 2500)
	utils.MouseJiggle(s.page)

	applyBtn := s.page.Locator("[data-automation='job-detail-apply'], a[data-automation='job-apply'], [data-testid='apply-button']").First()
	if visible, _ := applyBtn.IsVisible(); !visible {
		s.shots.Capture(s.page, "no-apply-button", "posting has no apply entry point")
		return fmt.Errorf("no apply entry point on %s", url)
	}
	if err := applyBtn.Click(); err != nil {
		return s.wrap(err)
	}

	// the form may open in-place or on a dedicated page
	if err := s.page.Locator("form").First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(15000),
	}); err != nil {
		s.shots.Capture(s.page, "no-form", "apply click did not reveal a form")
		return s.wrap(err)
	}
	utils.RandomDelay(800, 1800)
	return nil
}

// controlInfo is everything the enumerator extracts from one DOM control in
// a single evaluate round trip.
type controlInfo struct {
	tag        string
	typ        string
	name       string
	id         string
	label      string
	groupLabel string
	value      string
	options    []string
	required   bool
	checked    bool
	multiple   bool
	visible    bool
}

const extractControlJS = `el => {
	const text = n => (n && n.innerText || '').trim();
	const own = el.labels && el.labels.length ? text(el.labels[0]) : (el.getAttribute('aria-label') || '').trim();
	const fieldset = el.closest('fieldset');
	return {
		tag: el.tagName.toLowerCase(),
		type: (el.getAttribute('type') || '').toLowerCase(),
		name: el.getAttribute('name') || '',
		id: el.id || '',
		label: own,
		groupLabel: fieldset ? text(fieldset.querySelector('legend')) : '',
		value: el.value || '',
		options: el.tagName === 'SELECT' ? Array.from(el.options).map(o => o.label.trim()).filter(l => l && !/^(select|choose|please)/i.test(l)) : [],
		required: el.required || el.getAttribute('aria-required') === 'true',
		checked: !!el.checked,
		multiple: !!el.multiple,
		visible: el.type === 'file' || el.offsetParent !== null,
	};
}`

// EnumerateFields walks the form controls in document order. Radio and
// checkbox inputs sharing a name collapse into one logical field; option
// order follows the DOM so repeated calls on the same page agree.
func (s *FormSurface) EnumerateFields(ctx context.Context) ([]form.FormField, error) {
	fields, err := s.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	s.lastSignature = signature(fields)
	return fields, nil
}

func (s *FormSurface) enumerate(ctx context.Context) ([]form.FormField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	controls, err := s.page.Locator(controlSelector).All()
	if err != nil {
		return nil, s.wrap(err)
	}

	var fields []form.FormField
	groupIndex := map[string]int{} // input name -> index in fields
	groupCount := map[string]int{} // input name -> controls seen

	for i, ctl := range controls {
		info, err := s.extract(ctl)
		if err != nil {
			return nil, s.wrap(err)
		}
		if !info.visible || info.typ == "hidden" || info.typ == "submit" || info.typ == "button" {
			continue
		}

		switch {
		case info.typ == "radio" || info.typ == "checkbox":
			s.foldGroupControl(&fields, groupIndex, groupCount, info)
		default:
			fields = append(fields, s.scalarField(info, i))
		}
	}

	// lone checkboxes are consents, grouped ones are pick-many questions
	for name, n := range groupCount {
		idx := groupIndex[name]
		if fields[idx].Kind == form.KindMultiSelect && n == 1 {
			fields[idx].Kind = form.KindBool
			fields[idx].Options = nil
		}
	}

	return fields, nil
}

// foldGroupControl merges one radio or checkbox into its logical field.
func (s *FormSurface) foldGroupControl(fields *[]form.FormField, index, count map[string]int, info controlInfo) {
	name := info.name
	if name == "" {
		name = info.id
	}

	kind := form.KindSingleSelect
	if info.typ == "checkbox" {
		kind = form.KindMultiSelect
	}

	if idx, seen := index[name]; seen {
		count[name]++
		if info.label != "" {
			(*fields)[idx].Options = append((*fields)[idx].Options, info.label)
		}
		(*fields)[idx].Required = (*fields)[idx].Required || info.required
		return
	}

	label := info.groupLabel
	if label == "" {
		label = info.label
	}
	field := form.FormField{
		Selector: fmt.Sprintf("input[type='%s'][name='%s']", info.typ, name),
		Label:    label,
		Kind:     kind,
		Required: info.required,
	}
	if info.label != "" {
		field.Options = []string{info.label}
	}
	if info.checked {
		field.Value = info.label
	}
	index[name] = len(*fields)
	count[name] = 1
	*fields = append(*fields, field)
}

// scalarField builds a field for a standalone control.
func (s *FormSurface) scalarField(info controlInfo, position int) form.FormField {
	field := form.FormField{
		Selector: stableSelector(info, position),
		Label:    info.label,
		Value:    info.value,
		Options:  info.options,
		Required: info.required,
	}

	switch {
	case info.tag == "select" && info.multiple:
		field.Kind = form.KindMultiSelect
	case info.tag == "select":
		field.Kind = form.KindSingleSelect
	case info.typ == "file":
		field.Kind = form.KindUpload
	case info.tag == "textarea",
		info.typ == "" || info.typ == "text" || info.typ == "email" || info.typ == "tel" || info.typ == "number" || info.typ == "url":
		field.Kind = form.KindText
	default:
		// date pickers, sliders and whatever else sites invent surface as-is
		// so the interpreter can flag them
		field.Kind = form.FieldKind(info.typ)
	}
	return field
}

// Apply commits one resolved decision to the page.
func (s *FormSurface) Apply(ctx context.Context, field form.FormField, d form.Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	utils.RandomDelay(300, 900)

	locator := s.page.Locator(field.Selector)
	var err error
	switch d.Action {
	case form.ActionFill:
		err = utils.HumanType(locator.First(), d.Value)
	case form.ActionSelect:
		err = s.selectOne(locator, field, d.Value)
	case form.ActionSelectMany:
		err = s.checkMany(locator, d.Values)
	case form.ActionUpload:
		err = locator.First().SetInputFiles(d.Value)
	default:
		return fmt.Errorf("decision %q is not applicable", d.Action)
	}
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

// selectOne handles both native selects and radio groups behind the same
// field kind.
func (s *FormSurface) selectOne(locator playwright.Locator, field form.FormField, value string) error {
	if field.Kind == form.KindBool {
		first := locator.First()
		if value == "true" {
			return first.Check()
		}
		return first.Uncheck()
	}

	if strings.HasPrefix(field.Selector, "input[type='radio']") {
		return s.checkByLabel(locator, value)
	}
	_, err := locator.First().SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{value},
	})
	return err
}

// checkMany checks every group member whose label matches one of values.
func (s *FormSurface) checkMany(locator playwright.Locator, values []string) error {
	for _, v := range values {
		if err := s.checkByLabel(locator, v); err != nil {
			return err
		}
		utils.RandomDelay(200, 500)
	}
	return nil
}

// checkByLabel finds the group member labelled value and checks it.
func (s *FormSurface) checkByLabel(locator playwright.Locator, value string) error {
	members, err := locator.All()
	if err != nil {
		return err
	}
	for _, m := range members {
		raw, err := m.Evaluate("el => el.labels && el.labels.length ? el.labels[0].innerText.trim() : ''", nil)
		if err != nil {
			return err
		}
		if label, _ := raw.(string); label == value {
			return m.Check()
		}
	}
	return fmt.Errorf("no option labelled %q", value)
}

// Advance clicks the page's continue or submit control.
func (s *FormSurface) Advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	utils.RandomDelay(500, 1200)

	for _, sel := range advanceSelectors {
		btn := s.page.Locator(sel).First()
		if visible, _ := btn.IsVisible(); !visible {
			continue
		}
		if err := btn.Click(); err != nil {
			return s.wrap(err)
		}
		return nil
	}
	s.shots.Capture(s.page, "no-advance", "no continue or submit control found")
	return fmt.Errorf("no advance control on current page")
}

// WaitForTransition polls until the page either confirms the submission or
// renders a different set of fields.
func (s *FormSurface) WaitForTransition(ctx context.Context, timeout time.Duration) (form.PageEvent, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		for _, sel := range successSelectors {
			if visible, _ := s.page.Locator(sel).First().IsVisible(); visible {
				return form.PageComplete, nil
			}
		}
		if strings.Contains(s.page.URL(), "success") {
			return form.PageComplete, nil
		}

		fields, err := s.enumerate(ctx)
		if err != nil {
			return "", err
		}
		if sig := signature(fields); len(fields) > 0 && sig != s.lastSignature {
			s.lastSignature = sig
			return form.PageNext, nil
		}

		if time.Now().After(deadline) {
			s.shots.Capture(s.page, "transition-timeout", "page did not move on after advancing")
			return "", form.ErrTransitionTimeout
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// ChallengePresent reports whether an anti-automation widget is on screen.
func (s *FormSurface) ChallengePresent(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	count, err := s.page.Locator(challengeSelectors).Count()
	if err != nil {
		return false, s.wrap(err)
	}
	if count > 0 {
		s.shots.Capture(s.page, "challenge", "anti-automation challenge detected")
	}
	return count > 0, nil
}

// extract runs the per-control evaluation and decodes the result.
func (s *FormSurface) extract(ctl playwright.Locator) (controlInfo, error) {
	raw, err := ctl.Evaluate(extractControlJS, nil)
	if err != nil {
		return controlInfo{}, err
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return controlInfo{}, fmt.Errorf("unexpected control shape %T", raw)
	}

	info := controlInfo{
		tag:        str(m["tag"]),
		typ:        str(m["type"]),
		name:       str(m["name"]),
		id:         str(m["id"]),
		label:      str(m["label"]),
		groupLabel: str(m["groupLabel"]),
		value:      str(m["value"]),
		required:   boolean(m["required"]),
		checked:    boolean(m["checked"]),
		multiple:   boolean(m["multiple"]),
		visible:    boolean(m["visible"]),
	}
	if opts, ok := m["options"].([]interface{}); ok {
		for _, o := range opts {
			info.options = append(info.options, str(o))
		}
	}
	return info, nil
}

// stableSelector prefers id, then name, then position.
func stableSelector(info controlInfo, position int) string {
	if info.id != "" {
		return fmt.Sprintf("[id='%s']", info.id)
	}
	if info.name != "" {
		return fmt.Sprintf("%s[name='%s']", info.tag, info.name)
	}
	return fmt.Sprintf("%s >> nth=%d", controlSelector, position)
}

// signature fingerprints a page by its field labels.
func signature(fields []form.FormField) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	return strings.Join(labels, "|")
}

// wrap marks dead-session errors so the driver can halt the run instead of
// retrying against a closed browser.
func (s *FormSurface) wrap(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "browser has been closed") ||
		strings.Contains(msg, "context or browser has been closed") ||
		strings.Contains(msg, "connection closed") {
		return fmt.Errorf("%v: %w", err, form.ErrSessionLost)
	}
	return err
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func boolean(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
