package enhance

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"brandcss/config"
	"brandcss/tokens"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context      string
	SourceFile   string // source name without directory and extension
	SourceDir    string // source directory relative to the processing root
	Ext          string // source extension including the dot
	Brand        string
	BrandVersion string
	RunID        string
	Date         string
}

func buildValues(src, runID string, table *tokens.Table) Values {
	values := Values{
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  filepath.Dir(src),
		Ext:        filepath.Ext(src),
		RunID:      runID,
		Date:       time.Now().Format("2006-01-02"),
	}
	if values.SourceDir == "." {
		values.SourceDir = ""
	}
	if table != nil {
		values.Brand = table.Brand
		values.BrandVersion = table.Version
	}
	return values
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}
	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
