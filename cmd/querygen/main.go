package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/query"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/matthewbaird/infraview/internal/snapshot"
)

var (
	schemaFile    string
	snapshotDSN   string
	branch        string
	view          string
	kind          string
	objectID      string
	relationship  string
	filters       []string
	profiles      bool
	tasks         bool
	detailView    bool
	pageSize      int
	columnLimit   int
	snapshotLimit int
)

var rootCmd = &cobra.Command{
	Use:   "querygen",
	Short: "Generate console GraphQL documents from an Infrahub schema",
	Long: `querygen loads a schema from a CUE, JSON or YAML file, or from the latest
snapshot of a branch, and prints the documents and columns the console derives from it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the document for a view",
	Example: `  querygen query --schema schema.json --view list --kind InfraDevice --filter name__value=edge-01
  querygen query --schema schema.cue --view relationship --kind InfraDevice --id 17a2 --rel interfaces`,
	RunE: runQuery,
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print the derived columns and tabs of a kind as JSON",
	RunE:  runColumns,
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the kinds of a schema",
	RunE:  runKinds,
}

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Short:   "List the stored schema snapshots of a branch, newest first",
	Example: `  querygen snapshots --snapshot sqlite://snapshots.db --branch main --limit 5`,
	RunE:    runSnapshots,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "Schema file (.cue, .json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&snapshotDSN, "snapshot", "", "Snapshot store DSN to read the latest schema from")
	rootCmd.PersistentFlags().StringVarP(&branch, "branch", "b", "main", "Branch of the snapshot to read")

	queryCmd.Flags().StringVarP(&view, "view", "v", string(query.ViewList), "View: "+viewNames())
	queryCmd.Flags().StringVarP(&kind, "kind", "k", "", "Node kind")
	queryCmd.Flags().StringVar(&objectID, "id", "", "Object id")
	queryCmd.Flags().StringVar(&relationship, "rel", "", "Relationship name (relationship view)")
	queryCmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as key=value; repeat a key for a list")
	queryCmd.Flags().BoolVar(&profiles, "profiles", false, "Select applied profiles (details views)")
	queryCmd.Flags().BoolVar(&tasks, "tasks", false, "Select the related task count (details views)")
	queryCmd.Flags().IntVarP(&pageSize, "limit", "l", query.DefaultPageSize, "Page size for paginated views")

	columnsCmd.Flags().StringVarP(&kind, "kind", "k", "", "Node kind")
	columnsCmd.Flags().BoolVar(&detailView, "detail", false, "Derive detail-view columns")
	columnsCmd.Flags().IntVarP(&columnLimit, "limit", "l", 0, "Keep only the first N columns")
	_ = columnsCmd.MarkFlagRequired("kind")

	snapshotsCmd.Flags().IntVarP(&snapshotLimit, "limit", "l", 10, "Maximum snapshots to list; 0 lists all")

	rootCmd.AddCommand(queryCmd, columnsCmd, kindsCmd, snapshotsCmd)
}

func viewNames() string {
	names := make([]string, len(query.Views))
	for i, v := range query.Views {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

func loadSet(ctx context.Context) (*schema.Set, error) {
	switch {
	case schemaFile != "" && snapshotDSN != "":
		return nil, fmt.Errorf("only one of --schema or --snapshot can be specified")
	case schemaFile != "":
		return schema.LoadFile(schemaFile)
	case snapshotDSN != "":
		store, err := snapshot.Open(ctx, snapshotDSN)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		snap, err := store.Latest(ctx, branch)
		if err != nil {
			return nil, fmt.Errorf("latest snapshot of %s: %w", branch, err)
		}
		return snap.Set()
	default:
		return nil, fmt.Errorf("one of --schema or --snapshot must be specified")
	}
}

func parseFilterFlags(raw []string) (url.Values, error) {
	values := url.Values{}
	for _, f := range raw {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("filter %q: want key=value", f)
		}
		values.Add(k, v)
	}
	return values, nil
}

func runQuery(cmd *cobra.Command, _ []string) error {
	v := query.View(view)
	known := false
	for _, candidate := range query.Views {
		known = known || candidate == v
	}
	if !known {
		return fmt.Errorf("unknown view %q (want one of %s)", view, viewNames())
	}

	var set *schema.Set
	if schemaFile != "" || snapshotDSN != "" {
		var err error
		if set, err = loadSet(cmd.Context()); err != nil {
			return err
		}
	}

	values, err := parseFilterFlags(filters)
	if err != nil {
		return err
	}
	args, err := query.ParseFilters(values)
	if err != nil {
		return err
	}
	switch v {
	case query.ViewList, query.ViewRelationship, query.ViewGroup, query.ViewTasks:
		args = query.Paginate(args, query.Pagination{Limit: pageSize})
	}

	doc, err := query.BuildView(set, columns.DefaultRules(), query.ViewRequest{
		View:         v,
		Kind:         kind,
		ID:           objectID,
		Relationship: relationship,
		Args:         args,
		Details:      query.DetailsOptions{Profiles: profiles, TaskCount: tasks},
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), doc)
	if !strings.HasSuffix(doc, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runColumns(cmd *cobra.Command, _ []string) error {
	set, err := loadSet(cmd.Context())
	if err != nil {
		return err
	}
	ns, err := set.Lookup(kind)
	if err != nil {
		return err
	}
	d := columns.New(columns.DefaultRules(), set)
	out := struct {
		Kind    string           `json:"kind"`
		Columns []columns.Column `json:"columns"`
		Tabs    []columns.Tab    `json:"tabs"`
	}{
		Kind:    ns.Kind,
		Columns: d.Columns(ns, !detailView, columnLimit),
		Tabs:    d.Tabs(ns),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runKinds(cmd *cobra.Command, _ []string) error {
	set, err := loadSet(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, group := range []struct {
		name  string
		kinds []string
	}{
		{"node", set.Nodes()},
		{"generic", set.Generics()},
		{"profile", set.Profiles()},
	} {
		for _, k := range group.kinds {
			fmt.Fprintf(w, "%-8s %-40s %s\n", group.name, k, set.Kind(k).DisplayName())
		}
	}
	fmt.Fprintf(w, "# %d kinds, hash %s\n", set.Len(), set.Hash())
	return nil
}

func runSnapshots(cmd *cobra.Command, _ []string) error {
	if snapshotDSN == "" {
		return fmt.Errorf("--snapshot must be specified")
	}
	store, err := snapshot.Open(cmd.Context(), snapshotDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), branch, snapshotLimit)
	if err != nil {
		return fmt.Errorf("snapshots of %s: %w", branch, err)
	}
	w := cmd.OutOrStdout()
	for _, snap := range list {
		fmt.Fprintf(w, "%s  %s  %s\n", snap.ID, snap.TakenAt.UTC().Format(time.RFC3339), snap.Hash)
	}
	fmt.Fprintf(w, "# %d snapshots of %s\n", len(list), branch)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
