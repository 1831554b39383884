package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newContactsCmd(e *env) *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := e.rt.Services.Contacts.List(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := e.rt.Services.Contacts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a contact from a JSON body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Contacts.Create(cmd.Context(), body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(create)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a contact with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Contacts.Update(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(update)
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := e.rt.Services.Contacts.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Contact statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := e.rt.Services.Contacts.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	return newGroup("contacts", "Manage customer contacts", list, get, create, update, del, stats)
}

func newProductsCmd(e *env) *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List product stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := e.rt.Services.Products.List(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a product from a JSON body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Products.Create(cmd.Context(), body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(create)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a product with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Products.Update(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(update)
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := e.rt.Services.Products.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	return newGroup("products", "Manage product stock", list, create, update, del)
}

func newTodosCmd(e *env) *cobra.Command {
	var userID string
	// owner resolves --user, defaulting to the signed-in user's id.
	owner := func() (string, error) {
		if userID != "" {
			return userID, nil
		}
		st, err := e.rt.Sessions.Load()
		if err != nil {
			return "", err
		}
		if id := gjson.GetBytes(st.User, "id").String(); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("no signed-in user id known; pass --user")
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Todos.List(cmd.Context(), uid)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a task from a JSON body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Todos.Create(cmd.Context(), uid, body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(create)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a task with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			body, err := readPayload(cmd)
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Todos.Update(cmd.Context(), args[0], uid, body)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	addPayloadFlags(update)
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Todos.Delete(cmd.Context(), args[0], uid)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Task completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			resp, err := e.rt.Services.Todos.Stats(cmd.Context(), uid)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	group := newGroup("todos", "Manage tasks", list, create, update, del, stats)
	group.PersistentFlags().StringVar(&userID, "user", "", "owner user id (defaults to the signed-in user)")
	return group
}
