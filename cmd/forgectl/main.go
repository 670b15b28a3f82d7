// Command forgectl drives the asset pipeline from outside any GPU
// context: importing source files, reimporting stale ones,
// reconciling the database against what's on disk, and loading
// manifests. It exercises asset.DB end to end the way the render
// graph would at runtime, minus the render graph itself.
package main

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/forge-engine/forge/asset"
	_ "github.com/forge-engine/forge/asset/rawasset"
	"github.com/forge-engine/forge/asset/vfs"
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/logx"
	"github.com/forge-engine/forge/internal/task"

	billyosfs "github.com/go-git/go-billy/v5/osfs"
)

var (
	mountDir string
	dbPath   string
	cacheDir string
)

var rootCmd = &cobra.Command{
	Use:   "forgectl",
	Short: "Inspect and drive the forge asset pipeline from the command line",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mountDir, "mount", ".", "directory mounted as /project for asset paths")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "assets.db", "path to the asset database file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", ".forge/cache", "artifact cache directory, relative to --mount")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reimportCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(manifestCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func openDB() (*asset.DB, func(), error) {
	fs := vfs.New()
	fs.Mount("/project", billyosfs.New(mountDir))

	pool := task.NewPool(context.Background(), 0)
	cache := asset.NewArtifactCache(fs, path.Join("/project", cacheDir), pool)
	if err := cache.LoadCache(); err != nil {
		return nil, nil, fmt.Errorf("load cache: %w", err)
	}

	db := asset.NewDB(fs, asset.NewResolver(), cache)
	if err := db.LoadDB(dbPath, true); err != nil {
		return nil, nil, fmt.Errorf("load db: %w", err)
	}

	save := func() {
		if err := db.SaveDB(dbPath); err != nil {
			logx.Default().Error("save db failed", "path", dbPath, "err", err)
		}
	}
	return db, save, nil
}

var importCmd = &cobra.Command{
	Use:   "import [source-path]",
	Short: "Import a source file as a raw asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, save, err := openDB()
		if err != nil {
			return err
		}
		defer save()

		sourcePath := args[0]
		env := asset.ImportEnv{FileToID: make(map[string]id.UUID)}
		settings := asset.ImportSettings{"sourcePath": sourcePath}

		imp, ok := asset.LookupImporter("raw")
		if !ok {
			return fmt.Errorf("no importer registered for class %q", "raw")
		}
		result, err := imp.Import(nil, env, settings)
		if err != nil {
			return fmt.Errorf("import %s: %w", sourcePath, err)
		}

		u, err := db.ImportAsset(0, "raw", result)
		if err != nil {
			return fmt.Errorf("register import: %w", err)
		}
		fmt.Printf("imported %s as %s\n", sourcePath, u)
		return nil
	},
}

var reimportCmd = &cobra.Command{
	Use:   "reimport [uuid] [source-path]",
	Short: "Reimport an existing asset's source file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, save, err := openDB()
		if err != nil {
			return err
		}
		defer save()

		assetID, err := id.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parse uuid: %w", err)
		}
		sourcePath := args[1]

		env := asset.ImportEnv{FileToID: make(map[string]id.UUID)}
		settings := asset.ImportSettings{"sourcePath": sourcePath}

		imp, ok := asset.LookupImporter("raw")
		if !ok {
			return fmt.Errorf("no importer registered for class %q", "raw")
		}
		result, err := imp.Import(nil, env, settings)
		if err != nil {
			return fmt.Errorf("import %s: %w", sourcePath, err)
		}
		result.Main.UUID = assetID

		u, err := db.ReimportAsset(assetID, result)
		if err != nil {
			return fmt.Errorf("reimport %s: %w", assetID, err)
		}
		fmt.Printf("reimported %s\n", u)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove rows for assets whose meta files are gone and mark the rest preserved",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, save, err := openDB()
		if err != nil {
			return err
		}
		defer save()

		removed, preserved, err := db.ReconcileDB(func(data asset.AssetData) string {
			return asset.AssetMetaFile(data.Path)
		})
		if err != nil {
			return err
		}
		fmt.Printf("reconciled: %d removed, %d preserved\n", removed, preserved)
		return nil
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manifest operations",
}

var manifestLoadCmd = &cobra.Command{
	Use:   "load [manifest-path]",
	Short: "Create asset rows for every meta file listed in a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, save, err := openDB()
		if err != nil {
			return err
		}
		defer save()

		n, err := db.LoadManifest(args[0])
		if err != nil {
			return fmt.Errorf("load manifest %s: %w", args[0], err)
		}
		fmt.Printf("created %d asset rows\n", n)
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestLoadCmd)
}
