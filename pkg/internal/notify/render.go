package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer 渲染内置模板.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer 解析内置模板.
func NewRenderer() (*Renderer, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	return &Renderer{tpl: tpl}, nil
}

// Lookup 返回模板，不存在时返回错误.
func (r *Renderer) Lookup(name string) (*template.Template, error) {
	t := r.tpl.Lookup(name + ".html")
	if t == nil {
		return nil, fmt.Errorf("unknown mail template %q", name)
	}

	return t, nil
}

// Render 渲染为 HTML 字符串.
func (r *Renderer) Render(c Content) (string, error) {
	t, err := r.Lookup(c.Template)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, c.Vars); err != nil {
		return "", fmt.Errorf("render %s: %w", c.Template, err)
	}

	return buf.String(), nil
}
