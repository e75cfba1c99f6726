package cypher

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.cql
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.cql"))

// Render 渲染指定模板，LabelPattern/RelType 等片段由调用方拼好传入。
func Render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("execute template %s failed: %w", name, err)
	}
	return sb.String(), nil
}

// MustTemplate 同 Render，失败直接 panic，模板只在编译期嵌入，出错即是代码缺陷。
func MustTemplate(name string, data any) string {
	q, err := Render(name, data)
	if err != nil {
		panic(err)
	}
	return q
}

// MustAsset 返回模板原文。
func MustAsset(name string) string {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Errorf("load %s failed: %w", name, err))
	}
	return string(b)
}

// Statements 把多语句脚本按分号拆开，去掉空语句。
func Statements(name string) []string {
	var res []string
	for _, raw := range strings.Split(MustAsset(name), ";") {
		if q := strings.TrimSpace(raw); q != "" {
			res = append(res, q)
		}
	}
	return res
}
