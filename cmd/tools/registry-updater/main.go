// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"career-readiness/pkg/registry"
)

const defaultPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = add(os.Args[2:])
	case "update":
		err = update(os.Args[2:])
	case "validate":
		err = validate(os.Args[2:])
	case "list":
		err = list(os.Args[2:])
	default:
		help()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func add(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	id := fs.String("id", "", "Activity ID (e.g., assign-clerk)")
	displayName := fs.String("displayName", "", "Display Name (e.g., Assign Clerk)")
	description := fs.String("description", "", "Description")
	category := fs.String("category", "", "Category (assessment, ai, review, communication)")
	taskType := fs.String("taskType", "", "Zeebe task type, defaults to the id")
	version := fs.String("version", "1.0.0", "Version")
	status := fs.String("status", "planned", "Implementation status ("+strings.Join(registry.Statuses, ", ")+")")
	timeout := fs.String("timeout", "30s", "Job timeout")
	_ = fs.Parse(args)

	if *id == "" || *displayName == "" || *description == "" || *category == "" {
		fs.Usage()
		return fmt.Errorf("id, displayName, description and category are required")
	}
	if *taskType == "" {
		*taskType = *id
	}

	reg, err := registry.LoadRegistry(*path)
	if os.IsNotExist(err) {
		reg, err = &registry.ActivityRegistry{Version: "1.0.0"}, nil
	}
	if err != nil {
		return err
	}
	activity := registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		InputSchema:          map[string]interface{}{"type": "object", "required": []string{"assessmentId"}},
		OutputSchema:         map[string]interface{}{},
		ErrorCodes:           []string{},
		Timeout:              *timeout,
		Retries:              3,
		Workflows:            []string{"assessment-processing"},
		Tags:                 []string{},
	}
	if err := reg.Add(activity); err != nil {
		return err
	}
	if err := reg.Save(*path, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Added activity: %s\n", *id)
	return nil
}

func update(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	id := fs.String("id", "", "Activity ID to update")
	field := fs.String("field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	value := fs.String("value", "", "New value for the field")
	_ = fs.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		fs.Usage()
		return fmt.Errorf("id, field and value are required")
	}
	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	if err := reg.Set(*id, *field, *value); err != nil {
		return err
	}
	if err := reg.Save(*path, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	path := fs.String("path", defaultPath, "Path to registry file")
	category := fs.String("category", "", "Only list this category")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
	for _, a := range activities {
		if *category != "" && a.Category != *category {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.ID, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return w.Flush()
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add       Add a new activity to the registry
  update    Update an existing activity's field
  validate  Validate the registry file and its input schemas
  list      List registered activities
  help      Show this help message

Examples:
  registry-updater add -id assign-clerk -displayName "Assign Clerk" -description "Assigns a reviewer" -category review
  registry-updater update -id assign-clerk -field status -value verified
  registry-updater validate -path configs/activity-registry.json
  registry-updater list -category assessment

Use 'registry-updater <command> -h' for more information about a command.
`+"\n")
}
