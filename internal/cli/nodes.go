package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
	"github.com/ammiranda/repose/storage"
)

// placement holds the flags that say where a new node goes
type placement struct {
	collection string
	parent     string
}

func (p *placement) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.collection, "collection", "", "id of the collection the node belongs to")
	cmd.Flags().StringVar(&p.parent, "parent", "", "id of the parent folder")
}

func (p *placement) apply(req *models.SaveNodeRequest) {
	if p.collection != "" {
		req.CollectionID = &p.collection
	}
	if p.parent != "" {
		req.ParentID = &p.parent
	}
}

func newNodesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Add folders and requests",
	}
	cmd.AddCommand(
		newAddFolderCommand(a),
		newAddRequestCommand(a),
		newScratchCommand(a),
	)
	return cmd
}

func newAddFolderCommand(a *app) *cobra.Command {
	var where placement
	cmd := &cobra.Command{
		Use:   "add-folder NAME",
		Short: "Create a folder and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.SaveNodeRequest{Folder: &models.FolderInput{Name: args[0]}}
			where.apply(req)
			return a.putNode(cmd, req)
		},
	}
	where.register(cmd)
	return cmd
}

func newAddRequestCommand(a *app) *cobra.Command {
	var (
		where placement
		input models.RequestInput
	)
	cmd := &cobra.Command{
		Use:   "add-request NAME",
		Short: "Create a request and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Name = args[0]
			req := &models.SaveNodeRequest{Request: &input}
			where.apply(req)
			return a.putNode(cmd, req)
		},
	}
	where.register(cmd)
	cmd.Flags().StringVar(&input.URL, "url", "", "request URL")
	cmd.Flags().StringVarP(&input.Method, "method", "X", models.DefaultMethod, "HTTP method")
	cmd.Flags().StringVar(&input.RequestBody, "body", "", "request body")
	cmd.Flags().BoolVar(&input.Saved, "saved", true, "mark the request as saved")
	return cmd
}

func newScratchCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Print the folders and requests that belong to no collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, s *storage.Storage) error {
				nodes, err := s.LoadNodes(repository.ScopeDetached).Await(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					if nodes == nil {
						nodes = []*models.Node{}
					}
					return writeJSON(cmd.OutOrStdout(), nodes)
				}
				printForest(cmd.OutOrStdout(), nodes, 0)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a tree")
	return cmd
}

func (a *app) putNode(cmd *cobra.Command, req *models.SaveNodeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	node, err := req.ToNode("")
	if err != nil {
		return err
	}
	return a.withStorage(cmd, func(ctx context.Context, s *storage.Storage) error {
		saved, err := s.PutNode(node).Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
		return nil
	})
}
