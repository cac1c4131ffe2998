package enhance

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"brandcss/config"
	"brandcss/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs bool, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Enhance.TransliterateNames = transliterate
	cfg.Enhance.NameTemplate = template

	env := &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
	return env
}

func TestBuildOutputPath_SimpleCase_NoDirs(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")

	result := buildOutputPath("styles/site/main.css", "/output", "run-1", nil, env)
	expected := filepath.Join("/output", "main.css")

	if result != expected {
		t.Errorf("buildOutputPath() = %q, want %q", result, expected)
	}
}

func TestBuildOutputPath_SimpleCase_WithDirs(t *testing.T) {
	env := setupTestEnvForOutputPath(t, false, false, "")

	result := buildOutputPath("styles/site/main.css", "/output", "run-1", nil, env)
	expected := filepath.Join("/output", "styles", "site", "main.css")

	if result != expected {
		t.Errorf("buildOutputPath() = %q, want %q", result, expected)
	}
}

func TestBuildOutputPath_KeepsSourceExtension(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ext  string
	}{
		{"stylesheet", "main.css", ".css"},
		{"markup", "index.html", ".html"},
		{"legacy markup", "index.htm", ".htm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, false, "")

			result := buildOutputPath(tt.src, "/output", "run-1", nil, env)
			if filepath.Ext(result) != tt.ext {
				t.Errorf("buildOutputPath() = %q, want extension %q", result, tt.ext)
			}
		})
	}
}

func TestBuildOutputPath_Transliterate(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, true, "")

	result := buildOutputPath("Стили.css", "/output", "run-1", nil, env)
	expected := filepath.Join("/output", "stili.css")

	if result != expected {
		t.Errorf("buildOutputPath() = %q, want %q", result, expected)
	}
}

func TestBuildOutputPath_Template(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "{{ .Brand }}/{{ .SourceFile }}")

	result := buildOutputPath("styles/main.css", "/output", "run-1", testTable(t), env)
	expected := filepath.Join("/output", "acme", "main.css")

	if result != expected {
		t.Errorf("buildOutputPath() = %q, want %q", result, expected)
	}
}

func TestBuildOutputPath_TemplateFallback(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "{{ .NonExistentField }}")

	result := buildOutputPath("styles/main.css", "/output", "run-1", testTable(t), env)
	expected := filepath.Join("/output", "main.css")

	if result != expected {
		t.Errorf("buildOutputPath() = %q, want %q", result, expected)
	}
}

func TestDetermineOutputDir_NoDirs(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")

	result := determineOutputDir("styles/site/main.css", "/output", env)
	expected := "/output"

	if result != expected {
		t.Errorf("determineOutputDir() = %q, want %q", result, expected)
	}
}

func TestDetermineOutputDir_WithDirs(t *testing.T) {
	env := setupTestEnvForOutputPath(t, false, false, "")

	result := determineOutputDir("styles/site/main.css", "/output", env)
	expected := filepath.Join("/output", "styles", "site")

	if result != expected {
		t.Errorf("determineOutputDir() = %q, want %q", result, expected)
	}
}

func TestBuildDefaultFileName(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		transliterate bool
		expected      string
	}{
		{"simple stylesheet", "main.css", false, "main.css"},
		{"with path", "path/to/main.css", false, "main.css"},
		{"markup", "page.html", false, "page.html"},
		{"transliterate", "Стили.css", true, "stili.css"},
		{"special chars", "site:v2.css", false, "sitev2.css"},
		{"leading dot trimmed", ".hidden.css", false, "hidden.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")

			result := buildDefaultFileName(tt.src, env)
			if result != tt.expected {
				t.Errorf("buildDefaultFileName() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"simple path", "acme/site", []string{"acme", "site"}},
		{"single segment", "site", []string{"site"}},
		{"with trailing slash", "acme/site/", []string{"acme", "site"}},
		{"three levels", "acme/web/site", []string{"acme", "web", "site"}},
		{"empty path", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndCleanPath(tt.path)
			if len(result) != len(tt.expected) {
				t.Errorf("splitAndCleanPath() length = %d, want %d", len(result), len(tt.expected))
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndCleanPath()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	tests := []struct {
		name          string
		segment       string
		transliterate bool
		expected      string
	}{
		{"simple segment", "tokens", false, "tokens"},
		{"with spaces", "Brand Kit", false, "Brand Kit"},
		{"transliterate cyrillic", "Бренд", true, "brend"},
		{"special chars", "site:v2", false, "sitev2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")

			result := cleanPathSegment(tt.segment, env)
			if result != tt.expected {
				t.Errorf("cleanPathSegment() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAssemblePathWithSubdirs(t *testing.T) {
	tests := []struct {
		name          string
		outDir        string
		expandedName  string
		ext           string
		transliterate bool
		expected      string
	}{
		{
			"simple template",
			"/output",
			"acme/site",
			".css",
			false,
			filepath.Join("/output", "acme", "site.css"),
		},
		{
			"single level",
			"/output",
			"site",
			".css",
			false,
			filepath.Join("/output", "site.css"),
		},
		{
			"with transliterate",
			"/output",
			"Бренд/Стили",
			".css",
			true,
			filepath.Join("/output", "brend", "stili.css"),
		},
		{
			"markup extension",
			"/output",
			"acme/index",
			".html",
			false,
			filepath.Join("/output", "acme", "index.html"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")

			result := assemblePathWithSubdirs(tt.outDir, tt.expandedName, tt.ext, env)
			if result != tt.expected {
				t.Errorf("assemblePathWithSubdirs() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAssemblePathWithSubdirs_EmptyPath(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")

	result := assemblePathWithSubdirs("/output", "", ".css", env)
	expected := "/output"

	if result != expected {
		t.Errorf("assemblePathWithSubdirs() with empty path = %q, want %q", result, expected)
	}
}
