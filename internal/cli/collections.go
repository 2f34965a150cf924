package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/storage"
)

func newCollectionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"col"},
		Short:   "List and create collections",
	}
	cmd.AddCommand(newCollectionsListCommand(a), newCollectionsCreateCommand(a))
	return cmd
}

func newCollectionsListCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every collection with its folders and requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, s *storage.Storage) error {
				collections, err := s.LoadCollections().Await(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					if collections == nil {
						collections = []*models.Collection{}
					}
					return writeJSON(out, collections)
				}
				for _, collection := range collections {
					fmt.Fprintf(out, "%s  %s\n", collection.Name, collection.ID)
					printForest(out, collection.Nodes, 1)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a tree")
	return cmd
}

func newCollectionsCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty collection and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, s *storage.Storage) error {
				collection := models.NewCollection(args[0])
				if _, err := s.SaveCollection(collection).Await(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), collection.ID)
				return nil
			})
		},
	}
}

// printForest writes one line per node, indented by depth. Folders end in a slash.
func printForest(out io.Writer, roots []*models.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range roots {
		if node.IsFolder() {
			fmt.Fprintf(out, "%s%s/  %s\n", indent, node.Name(), node.ID)
			printForest(out, node.Children, depth+1)
			continue
		}
		req, _ := node.Request()
		fmt.Fprintf(out, "%s%s  %s %s  %s\n", indent, node.Name(), req.Method, req.URL, node.ID)
	}
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
