// Package web holds the server-rendered templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static/*
var static embed.FS

var printer = message.NewPrinter(language.English)

// Money renders an amount with grouping and two decimals, e.g. "$1,234.50".
func Money(d decimal.Decimal) string {
	return printer.Sprintf("$%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// Engine returns the template engine over the embedded templates.
func Engine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("money", Money)
	engine.AddFunc("date", func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	})
	return engine
}

// Static exposes the embedded assets for the /static route.
func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
