package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	ModuleName  string
	SiteName    string
}

// scaffoldFiles maps output paths (relative to the project directory) to
// their Go text/template content.
var scaffoldFiles = map[string]string{
	"main.go":           mainTemplate,
	"config.yaml":       configTemplate,
	"config.prod.yaml":  configProdTemplate,
	".gitignore":        gitignoreTemplate,
	"public/robots.txt": robotsTemplate,
}

func runNew(name string) error {
	// Derive project directory name from the last path segment.
	dirName := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		dirName = name[idx+1:]
	}

	if _, err := os.Stat(dirName); err == nil {
		return fmt.Errorf("directory %q already exists", dirName)
	}

	data := scaffoldData{
		ProjectName: dirName,
		ModuleName:  name,
		SiteName:    toTitle(dirName),
	}

	fmt.Printf("Creating new chronicle project: %s\n\n", dirName)

	for relPath, content := range scaffoldFiles {
		outPath := filepath.Join(dirName, relPath)

		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", relPath, err)
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := tmpl.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("execute template %s: %w", relPath, err)
		}
		f.Close()
		fmt.Printf("  created %s\n", outPath)
	}

	// Initialize the module and resolve dependencies.
	fmt.Println("\nResolving Go dependencies...")
	for _, args := range [][]string{
		{"mod", "init", name},
		{"mod", "tidy"},
	} {
		cmd := exec.Command("go", args...)
		cmd.Dir = dirName
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "\nWarning: go %s failed: %v\n", strings.Join(args, " "), err)
			fmt.Fprintf(os.Stderr, "Run 'cd %s && go %s' manually after fixing.\n", dirName, strings.Join(args, " "))
			break
		}
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dirName)
	fmt.Println("  go run . -config config.yaml")
	fmt.Println()
	fmt.Println("Provide your templ components in main.go, then set admin_password")
	fmt.Println("and secret_key in config.prod.yaml (or env vars) for production.")
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

const mainTemplate = `package main

import (
	"flag"
	"log"

	"github.com/penwell/chronicle"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg := chronicle.MustLoadConfig(*configPath)

	// TODO: replace with your own templ components.
	views := chronicle.ViewFuncs{}

	app := chronicle.New(cfg, views)
	defer app.Close()
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
`

const configTemplate = `# {{.SiteName}} — development configuration
env: dev
debug: true
name: "{{.SiteName}}"
url: "http://localhost:3000"
addr: ":3000"
database_path: "data/blog.db"
allowed_hosts: ["*"]
admin_password: "change-me"
secret_key: "dev-secret-change-me"
`

const configProdTemplate = `# {{.SiteName}} — production configuration
env: production
debug: false
name: "{{.SiteName}}"
url: "https://example.com"
addr: ":3000"
database_path: "data/blog.db"
allowed_hosts: ["example.com"]
cookie_secure: true
# Set ADMIN_PASSWORD and SECRET_KEY via environment variables.
mail:
  from: "blog@example.com"
  smtp_host: "smtp.example.com"
  smtp_port: 587
`

const gitignoreTemplate = `data/
public/uploads/
.env
`

const robotsTemplate = `User-agent: *
Allow: /
Disallow: /admin/
`
