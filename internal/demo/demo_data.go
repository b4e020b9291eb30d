package demo

// Patch is a simulated patch: the files it writes on top of the ones below
type Patch struct {
	Name    string
	Message string
	Files   map[string]string
	// State is where the patch ends up after seeding: applied, unapplied or hidden
	State string
}

var demoBranch = "main"

var demoBaseFiles = map[string]string{
	"README.md":      "# weather\n\nA tiny forecast service.\n",
	"go.mod":         "module example.com/weather\n\ngo 1.22\n",
	"main.go":        "package main\n\nfunc main() {\n\tserve(\":8080\")\n}\n",
	"server.go":      "package main\n\nfunc serve(addr string) {\n}\n",
	"forecast.go":    "package main\n\ntype Forecast struct {\n\tCity string\n}\n",
	"config/app.yml": "port: 8080\n",
}

// Demo series: three applied, two unapplied and one hidden patch
var demoPatches = []Patch{
	{
		Name:    "add-logging",
		Message: "Add request logging\n\nLog every request with its latency.",
		Files: map[string]string{
			"server.go": "package main\n\nimport \"log\"\n\nfunc serve(addr string) {\n\tlog.Printf(\"listening on %s\", addr)\n}\n",
		},
		State: "applied",
	},
	{
		Name:    "forecast-units",
		Message: "Support metric and imperial units",
		Files: map[string]string{
			"forecast.go": "package main\n\ntype Forecast struct {\n\tCity  string\n\tUnits string\n}\n",
		},
		State: "applied",
	},
	{
		Name:    "config-timeout",
		Message: "Make the upstream timeout configurable",
		Files: map[string]string{
			"config/app.yml": "port: 8080\ntimeout: 5s\n",
		},
		State: "applied",
	},
	{
		Name:    "readme-usage",
		Message: "Document usage in the README",
		Files: map[string]string{
			"README.md": "# weather\n\nA tiny forecast service.\n\n## Usage\n\n    go run .\n",
		},
		State: "unapplied",
	},
	{
		Name:    "cache-forecasts",
		Message: "Cache forecasts for five minutes",
		Files: map[string]string{
			"cache.go": "package main\n\nimport \"time\"\n\nconst cacheTTL = 5 * time.Minute\n",
		},
		State: "unapplied",
	},
	{
		Name:    "experiment-grpc",
		Message: "WIP: serve forecasts over gRPC",
		Files: map[string]string{
			"grpc.go": "package main\n\n// gRPC server goes here\n",
		},
		State: "hidden",
	},
}

// GetDemoPatches returns the demo patch data
func GetDemoPatches() []Patch {
	return demoPatches
}

// GetDemoBranch returns the simulated branch
func GetDemoBranch() string {
	return demoBranch
}
