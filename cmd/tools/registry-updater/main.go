// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"places-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	addPath := addCmd.String("path", defaultRegistryPath, "Path to registry file")
	idAdd := addCmd.String("id", "", "Activity ID (e.g., refresh-restaurants)")
	displayName := addCmd.String("displayName", "", "Display Name")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., restaurants)")
	taskType := addCmd.String("taskType", "", "Zeebe task type (e.g., restaurants.refresh)")
	timeout := addCmd.String("timeout", "60s", "Job timeout")

	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (displayName, description, category, taskType, timeout, tags)")
	value := updateCmd.String("value", "", "New value for the field")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", defaultRegistryPath, "Path to registry file")

	var err error
	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, category, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err = addActivity(*addPath, registry.Activity{
			ID:          *idAdd,
			DisplayName: *displayName,
			Description: *description,
			Category:    *category,
			TaskType:    *taskType,
			InputSchema: map[string]interface{}{"type": "object"},
			Outputs:     []string{},
			ErrorCodes:  []string{},
			Timeout:     *timeout,
		})
		if err == nil {
			fmt.Printf("Added activity: %s\n", *idAdd)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateActivity(*updatePath, *idUpdate, *field, *value)
		if err == nil {
			fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var n int
		n, err = validateRegistry(*validatePath)
		if err == nil {
			fmt.Printf("Registry validation passed. Found %d activities.\n", n)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		err = listActivities(*listPath, os.Stdout)

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity with ID %s already exists", activity.ID)
		}
	}

	reg.Activities = append(reg.Activities, activity)
	return saveRegistry(reg, path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	a := &reg.Activities[idx]
	switch field {
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "tags":
		a.Tags = splitList(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, path)
}

// validateRegistry loads the file, then checks the fields the worker manager
// relies on and that every input schema compiles.
func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return 0, fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, a := range reg.Activities {
		if ids[a.ID] {
			return 0, fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return 0, fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return 0, fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return 0, fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
			}
		}
		if a.InputSchema != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
				return 0, fmt.Errorf("activity %s has invalid inputSchema: %w", a.ID, err)
			}
		}
	}

	return len(reg.Activities), nil
}

func listActivities(path string, w io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK TYPE\tCATEGORY\tTIMEOUT")
	for _, a := range reg.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.TaskType, a.Category, a.Timeout)
	}
	return tw.Flush()
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add       Add a new activity to the registry
  update    Update an existing activity's field
  validate  Validate the registry file
  list      Print the registered activities
  help      Show this help message

Examples:
  registry-updater add -id export-tours -displayName "Export Tours" -category tours -taskType tours.export
  registry-updater update -id refresh-restaurants -field timeout -value 90s
  registry-updater validate -path configs/activity-registry.json
  registry-updater list

Use 'registry-updater <command> -h' for more information about a command.
`)
}
