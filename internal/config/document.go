package config

import "os"

// Environment variables read by Resolve.
const (
	EnvDBHost  = "FLARUM_DB_HOST"
	EnvDBPort  = "FLARUM_DB_PORT"
	EnvDBName  = "FLARUM_DB_NAME"
	EnvDBUser  = "FLARUM_DB_USER"
	EnvDBPass  = "FLARUM_DB_PASS"
	EnvBaseURL = "FLARUM_BASE_URL"
)

// Document is the resolved configuration handed to the forum bootstrap.
// It holds no reference fields, so a copy never shares state with the original.
type Document struct {
	Debug    bool     `yaml:"debug" json:"debug"`
	Database Database `yaml:"database" json:"database"`
	URL      string   `yaml:"url" json:"url"`
	Paths    Paths    `yaml:"paths" json:"paths"`
}

// Database holds the connection parameters of the forum database.
type Database struct {
	Driver        string `yaml:"driver" json:"driver"`
	Host          string `yaml:"host" json:"host"`
	Port          string `yaml:"port" json:"port"`
	Database      string `yaml:"database" json:"database"`
	Username      string `yaml:"username" json:"username"`
	Password      string `yaml:"password" json:"password"`
	Charset       string `yaml:"charset" json:"charset"`
	Collation     string `yaml:"collation" json:"collation"`
	Prefix        string `yaml:"prefix" json:"prefix"`
	Strict        bool   `yaml:"strict" json:"strict"`
	Engine        string `yaml:"engine" json:"engine"`
	PrefixIndexes bool   `yaml:"prefix_indexes" json:"prefix_indexes"`
}

// Paths holds the URL segments of the API and admin interfaces.
type Paths struct {
	API   string `yaml:"api" json:"api"`
	Admin string `yaml:"admin" json:"admin"`
}

// LookupFunc reports the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// EnvKey binds an environment variable to the document key path it populates.
type EnvKey struct {
	Name string
	Path string
}

var envKeys = []EnvKey{
	{Name: EnvDBHost, Path: "database.host"},
	{Name: EnvDBPort, Path: "database.port"},
	{Name: EnvDBName, Path: "database.database"},
	{Name: EnvDBUser, Path: "database.username"},
	{Name: EnvDBPass, Path: "database.password"},
	{Name: EnvBaseURL, Path: "url"},
}

// EnvKeys returns the environment-sourced fields in declaration order.
func EnvKeys() []EnvKey {
	out := make([]EnvKey, len(envKeys))
	copy(out, envKeys)
	return out
}

// Resolve builds the document from the ambient process environment.
func Resolve() Document {
	return ResolveWith(os.LookupEnv)
}

// emptyEnv stands in for a nil LookupFunc.
func emptyEnv(string) (string, bool) { return "", false }

// ResolveWith builds the document using lookup for environment-sourced fields.
// Unset variables resolve to the empty string; values are copied verbatim.
// A nil lookup is an empty environment.
func ResolveWith(lookup LookupFunc) Document {
	if lookup == nil {
		lookup = emptyEnv
	}
	get := func(key string) string {
		value, _ := lookup(key)
		return value
	}

	return Document{
		Debug: false,
		Database: Database{
			Driver:        "mysql",
			Host:          get(EnvDBHost),
			Port:          get(EnvDBPort),
			Database:      get(EnvDBName),
			Username:      get(EnvDBUser),
			Password:      get(EnvDBPass),
			Charset:       "utf8mb4",
			Collation:     "utf8mb4_unicode_ci",
			Prefix:        "",
			Strict:        false,
			Engine:        "InnoDB",
			PrefixIndexes: true,
		},
		URL: get(EnvBaseURL),
		Paths: Paths{
			API:   "api",
			Admin: "admin",
		},
	}
}

// Unset lists the environment-sourced variables that lookup reports as absent.
// A variable set to the empty string counts as set. A nil lookup is an empty
// environment, so every variable is reported.
func Unset(lookup LookupFunc) []string {
	if lookup == nil {
		lookup = emptyEnv
	}
	var missing []string
	for _, key := range envKeys {
		if _, ok := lookup(key.Name); !ok {
			missing = append(missing, key.Name)
		}
	}
	return missing
}
