package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dart-tools/brlsp/src/brlsp/app"
	buildfilter "github.com/dart-tools/brlsp/src/brlsp/internal/build-filter"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/pubspec"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const _version = "0.4.0"

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brlsp",
		Short:         "build_runner language server for Dart and Flutter editors",
		Version:       _version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the daemon and accept editor connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	root.AddCommand(newFiltersCmd(fs.New()))
	return root
}

func serve() error {
	fx.New(opts()).Run()
	return nil
}

func newFiltersCmd(fileSystem fs.BrlspFS) *cobra.Command {
	var (
		root     string
		argsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "filters <file.dart>",
		Short: "Print the build filters that target a Dart source file",
		Long: `Print the build filters that target a Dart source file.

The project root defaults to the nearest directory above the file that contains pubspec.yaml.

Examples:
  brlsp filters lib/models/user.dart
  brlsp filters lib/models/user.dart --args`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if root == "" {
				if root, err = findProjectRoot(fileSystem, filepath.Dir(document)); err != nil {
					return err
				}
			} else if root, err = filepath.Abs(root); err != nil {
				return err
			} else if ok, err := fileSystem.DirExists(root); err != nil {
				return fmt.Errorf("checking root %s: %w", root, err)
			} else if !ok {
				return fmt.Errorf("root %s is not a directory", root)
			}

			text, err := fileSystem.ReadFile(document)
			if err != nil {
				return fmt.Errorf("reading %s: %w", document, err)
			}

			resolution := buildfilter.Resolve(buildfilter.Params{
				DocumentPath:  document,
				DocumentText:  string(text),
				WorkspaceRoot: root,
				FileExists:    fs.ExistsFunc(fileSystem),
			})
			if resolution == nil {
				return fmt.Errorf("%s is outside of %s", document, root)
			}

			if argsOnly {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(resolution.Args(), " "))
				return nil
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(resolution)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "project root the filters are relative to")
	cmd.Flags().BoolVar(&argsOnly, "args", false, "print build_runner arguments instead of JSON")
	return cmd
}

// findProjectRoot walks up from dir to the closest folder with a pubspec.yaml.
func findProjectRoot(fileSystem fs.BrlspFS, dir string) (string, error) {
	exists := fs.ExistsFunc(fileSystem)
	for current := dir; ; current = filepath.Dir(current) {
		if exists(filepath.Join(current, pubspec.FileName)) {
			return current, nil
		}
		if filepath.Dir(current) == current {
			return "", errors.New("no pubspec.yaml found above " + dir)
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
