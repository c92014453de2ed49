package notion

import "time"

type text struct {
	Content string `json:"content"`
}

type richText struct {
	Text text `json:"text"`
}

type named struct {
	Name string `json:"name"`
}

type date struct {
	Start string `json:"start"`
}

// Title returns a title property value.
func Title(s string) any {
	return map[string]any{"title": []richText{{Text: text{Content: s}}}}
}

// RichText returns a rich_text property value.
func RichText(s string) any {
	return map[string]any{"rich_text": []richText{{Text: text{Content: s}}}}
}

// Email returns an email property value.
func Email(s string) any {
	return map[string]any{"email": s}
}

// Status returns a status property value.
func Status(name string) any {
	return map[string]any{"status": named{Name: name}}
}

// Number returns a number property value.
func Number(n int) any {
	return map[string]any{"number": n}
}

// Date returns a date property value starting at t.
func Date(t time.Time) any {
	return map[string]any{"date": date{Start: t.UTC().Format(time.RFC3339)}}
}
