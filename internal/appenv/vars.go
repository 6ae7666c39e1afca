// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// BrainDump application environment variables

package appenv

// Type is the value type of an environment variable
type Type string

const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypePath   Type = "path"
	TypeURL    Type = "url"
	TypeList   Type = "list"
)

// Group tags variables that belong together in the template
type Group string

const (
	GroupApp     Group = "Application"
	GroupStorage Group = "Storage"
	GroupModel   Group = "AI model"
	GroupEmail   Group = "Email"
	GroupQueue   Group = "Revision queue"
)

// Groups in template order
var Groups = []Group{GroupApp, GroupStorage, GroupModel, GroupEmail, GroupQueue}

// Var describes one variable the application reads
type Var struct {
	Key         string
	Type        Type
	Default     string
	Secret      bool
	Group       Group
	Description string
	Min, Max    *float64
}

func bound(v float64) *float64 { return &v }

// DefaultSecretKey is the application's fallback when SECRET_KEY is unset
const DefaultSecretKey = "fallback-secret-key"

// Vars is the application's configuration surface
var Vars = []Var{
	{Key: "SECRET_KEY", Type: TypeString, Default: DefaultSecretKey, Secret: true, Group: GroupApp, Description: "Flask session signing key"},
	{Key: "DEBUG", Type: TypeBool, Default: "false", Group: GroupApp, Description: "Flask debug mode"},

	{Key: "DATABASE", Type: TypePath, Default: "brain_dump.db", Group: GroupStorage, Description: "SQLite database file"},
	{Key: "HTML_OUTPUT", Type: TypePath, Default: "output", Group: GroupStorage, Description: "directory for generated HTML"},
	{Key: "SYSTEM_PROMPT_FILE", Type: TypePath, Default: "system_prompt.txt", Group: GroupStorage, Description: "prompt template file"},

	{Key: "USE_LOCAL_MODEL", Type: TypeBool, Default: "false", Group: GroupModel, Description: "run a local GGUF model instead of a remote endpoint"},
	{Key: "MODEL_PATH", Type: TypePath, Group: GroupModel, Description: "local model file"},
	{Key: "ENDPOINT", Type: TypeURL, Group: GroupModel, Description: "remote inference endpoint"},
	{Key: "API_KEY", Type: TypeString, Secret: true, Group: GroupModel, Description: "remote endpoint key"},
	{Key: "MODEL_NAME", Type: TypeString, Group: GroupModel, Description: "remote model name"},
	{Key: "TEMPERATURE", Type: TypeFloat, Default: "0.7", Group: GroupModel, Min: bound(0)},
	{Key: "TOP_P", Type: TypeFloat, Default: "0.9", Group: GroupModel, Min: bound(0), Max: bound(1)},
	{Key: "TOP_K", Type: TypeInt, Default: "40", Group: GroupModel, Min: bound(0)},
	{Key: "MIN_P", Type: TypeFloat, Default: "0.05", Group: GroupModel, Min: bound(0), Max: bound(1)},
	{Key: "MAX_TOKENS", Type: TypeInt, Default: "2048", Group: GroupModel, Min: bound(1)},
	{Key: "CONTEXT_SIZE", Type: TypeInt, Default: "4096", Group: GroupModel, Min: bound(1)},

	{Key: "SMTP_ENABLED", Type: TypeBool, Default: "false", Group: GroupEmail, Description: "email each processed note"},
	{Key: "SMTP_SERVER", Type: TypeString, Group: GroupEmail},
	{Key: "SMTP_PORT", Type: TypeInt, Default: "587", Group: GroupEmail, Min: bound(1), Max: bound(65535)},
	{Key: "SMTP_USERNAME", Type: TypeString, Group: GroupEmail},
	{Key: "SMTP_PASSWORD", Type: TypeString, Secret: true, Group: GroupEmail},
	{Key: "EMAIL_SENDER", Type: TypeString, Group: GroupEmail},
	{Key: "EMAIL_RECIPIENTS", Type: TypeList, Group: GroupEmail, Description: "comma-separated addresses"},

	{Key: "REVISION_QUEUE_DELAY", Type: TypeFloat, Default: "1.0", Group: GroupQueue, Min: bound(0), Description: "seconds between revisions"},
	{Key: "GENERATE_OUTPUT_ONLY", Type: TypeBool, Default: "false", Group: GroupQueue},
	{Key: "GENERATE_BUT_DO_NOT_APPLY", Type: TypeBool, Default: "false", Group: GroupQueue},
}

// Lookup returns the variable named key
func Lookup(key string) (Var, bool) {
	for _, v := range Vars {
		if v.Key == key {
			return v, true
		}
	}
	return Var{}, false
}
