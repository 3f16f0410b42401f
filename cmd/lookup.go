package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jcdickinson/symdoc/internal/index"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [link-or-title]",
	Short: "Look up pages in the SQLite index without loading the catalog",
	Long: `Reads the link hierarchy stored by "symdoc index". With no argument, lists
the indexed bundles. A link prints the page with its children, anchor
sections and mentioning articles; anything else is searched in page titles.`,
	Example: `  symdoc lookup
  symdoc lookup MyKit/MyClass
  symdoc lookup doc://com.example.mykit/documentation/MyKit/MyClass
  symdoc lookup --bundle com.example.mykit "getting started"`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLookup,
}

var (
	lookupDB     string
	lookupBundle string
	lookupLimit  int
)

func init() {
	lookupCmd.Flags().StringVar(&lookupDB, "db", "", "index database path (overrides index.path)")
	lookupCmd.Flags().StringVar(&lookupBundle, "bundle", "", "bundle identifier (overrides bundle.identifier)")
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 20, "maximum number of title matches")
}

func runLookup(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig("")
	if err != nil {
		log.Fatalf("%v", err)
	}
	path := cfg.Index.Path
	if lookupDB != "" {
		path = lookupDB
	}
	bundleID := cfg.Bundle.Identifier
	if lookupBundle != "" {
		bundleID = lookupBundle
	}

	database, err := index.New(path)
	if err != nil {
		slog.Error("failed to open index", "path", path, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if len(args) == 0 {
		bundles, err := database.ListBundles()
		if err != nil {
			slog.Error("failed to list bundles", "error", err)
			os.Exit(1)
		}
		if len(bundles) == 0 {
			fmt.Println("No bundles indexed. Run: symdoc index <catalog>")
			return
		}
		for _, b := range bundles {
			fmt.Printf("%s\t%s\tindexed %s\n", b.Identifier, b.Name, b.IndexedAt.Format("2006-01-02 15:04"))
		}
		return
	}

	page, err := database.Lookup(bundleID, args[0])
	if err != nil {
		slog.Error("failed to look up page", "link", args[0], "error", err)
		os.Exit(1)
	}
	if page != nil {
		printIndexedPage(page)
		return
	}

	b, err := database.GetBundle(bundleID)
	if err != nil {
		slog.Error("failed to read bundle", "bundle", bundleID, "error", err)
		os.Exit(1)
	}
	if b == nil {
		log.Fatalf("bundle %q is not indexed; run symdoc index first", bundleID)
	}
	found, err := database.FindByTitle(bundleID, args[0], lookupLimit)
	if err != nil {
		slog.Error("failed to search titles", "error", err)
		os.Exit(1)
	}
	if len(found) == 0 {
		log.Fatalf("no page in %s matches %q", b.Name, args[0])
	}
	for _, n := range found {
		fmt.Printf("%s\t%s\t%s\n", n.Path, n.Title, n.KindName)
	}
}

func printIndexedPage(p *index.Page) {
	fmt.Printf("%s (%s)\n", p.Title, p.KindName)
	fmt.Printf("  path: %s\n", p.Path)
	if p.ParentPath != "" {
		fmt.Printf("  parent: %s\n", p.ParentPath)
	}
	if p.PreciseID != "" {
		fmt.Printf("  symbol: %s\n", p.PreciseID)
	}
	if len(p.Anchors) > 0 {
		fmt.Println("\nSections:")
		for _, a := range p.Anchors {
			fmt.Printf("  #%s\n", a.Fragment)
		}
	}
	if len(p.Children) > 0 {
		fmt.Println("\nChildren:")
		for _, c := range p.Children {
			fmt.Printf("  %s\t%s\n", c.Path, c.Title)
		}
	}
	if len(p.MentionedIn) > 0 {
		fmt.Println("\nMentioned in:")
		for _, path := range p.MentionedIn {
			fmt.Printf("  %s\n", path)
		}
	}
}
