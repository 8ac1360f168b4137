package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	spacerHeight  = 6
	sectionMargin = 4
	barValueWidth = 70
)

// Renderer draws panel primitives in one theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel fills a bordered panel background.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	t := r.Theme
	rl.DrawRectangle(x, y, width, height, t.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, t.PanelBorder)
}

// DrawSectionHeader draws title and returns the Y below it.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws "label: value" and returns the Y below it.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	t := r.Theme
	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawText(value, x+t.LabelWidth, y, t.FontSize, t.ValueColor)
	return y + t.LineHeight
}

// DrawBar draws a horizontal gauge of value within rng followed by text.
func (r *Renderer) DrawBar(x, y int32, label, text string, value float64, rng FieldRange, width int32) int32 {
	t := r.Theme
	left := x + t.LabelWidth
	span := width - t.LabelWidth - barValueWidth
	fill := int32(rng.Normalize(value) * float64(span))

	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawRectangle(left, y+2, span, t.BarHeight, t.BarBg)
	rl.DrawRectangle(left, y+2, fill, t.BarHeight, t.BarFill)
	rl.DrawText(text, left+span+5, y, t.FontSize, t.ValueColor)

	return y + r.fieldHeight(WidgetBar)
}

// DrawField draws one field and returns the Y below it.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		r.DrawLabelValue(x, y, fd.Label, fieldText(fd, data))
	case WidgetBar:
		var v float64
		if fd.Getter != nil {
			v = fd.Getter(data)
		}
		r.DrawBar(x, y, fd.Label, fieldText(fd, data), v, fd.Range, width)
	case WidgetSection:
		r.DrawSectionHeader(x, y, fd.Label)
	}
	return y + r.fieldHeight(fd.Widget)
}

// DrawSection draws the title and visible fields of sd.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if !visible(sd.Visible, data) {
		return y
	}
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		if visible(fd.Visible, data) {
			y = r.DrawField(x, y, fd, data, width)
		}
	}
	return y + sectionMargin
}

// SectionHeight returns the height DrawSection will use for data.
func (r *Renderer) SectionHeight(sd SectionDescriptor, data any) int32 {
	if !visible(sd.Visible, data) {
		return 0
	}
	h := int32(sectionMargin)
	if sd.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		if visible(fd.Visible, data) {
			h += r.fieldHeight(fd.Widget)
		}
	}
	return h
}

func (r *Renderer) fieldHeight(w WidgetType) int32 {
	switch w {
	case WidgetText, WidgetSection:
		return r.Theme.LineHeight
	case WidgetBar:
		return r.Theme.LineHeight + 2
	case WidgetSpacer:
		return spacerHeight
	}
	return 0
}

func visible(check func(any) bool, data any) bool {
	return check == nil || check(data)
}

// fieldText formats the value of a text or bar field.
func fieldText(fd FieldDescriptor, data any) string {
	switch {
	case fd.TextGetter != nil:
		return fd.TextGetter(data)
	case fd.Getter == nil:
		return ""
	case fd.Format == "":
		return fmt.Sprintf("%.3g", fd.Getter(data))
	default:
		return fmt.Sprintf(fd.Format, fd.Getter(data))
	}
}
