/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/supportdesk/apiserver/config"
	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/internal/client/session"
	"github.com/supportdesk/apiserver/internal/client/state"
	"github.com/spf13/cobra"
)

var (
	clientName        string
	clientEmail       string
	clientPassword    string
	clientProduct     string
	clientDescription string
	clientNoteText    string
)

// newStore builds the client-side state container, seeded from the persisted
// session so login status is known without a network round-trip.
func newStore() *state.Store {
	cfg := config.LoadConfig()
	api := client.New(cfg.Client.ServerURL)
	sessions := session.NewFileStore(cfg.Client.SessionFile)
	return state.New(api, sessions)
}

func requireLogin(store *state.Store) error {
	if !store.LoggedIn() {
		return errors.New("not logged in, run `supportdesk client login` first")
	}
	return nil
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "CLI client for the supportdesk server",
}

var clientRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := store.Auth.Register(cmd.Context(), clientName, clientEmail, clientPassword); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		sess, _ := store.Auth.Current()
		fmt.Printf("registered and logged in as %s <%s>\n", sess.Name, sess.Email)
		return nil
	},
}

var clientLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := store.Auth.Login(cmd.Context(), clientEmail, clientPassword); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		sess, _ := store.Auth.Current()
		fmt.Printf("logged in as %s <%s>\n", sess.Name, sess.Email)
		return nil
	},
}

var clientLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newStore().Auth.Logout()
	},
}

var clientMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		sess, ok := store.Auth.Current()
		if !ok {
			return errors.New("not logged in")
		}
		fmt.Printf("%d\t%s\t%s\n", sess.ID, sess.Name, sess.Email)
		return nil
	},
}

var clientTicketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Manage your tickets",
}

var clientTicketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		if err := store.Tickets.Fetch(cmd.Context()); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		for _, ticket := range store.Tickets.List().Payload {
			fmt.Printf("%d\t%s\t%s\t%s\n", ticket.ID, ticket.Status, ticket.Product, ticket.Description)
		}
		return nil
	},
}

var clientTicketsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "File a new ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		ticket, err := store.Tickets.Create(cmd.Context(), clientProduct, clientDescription)
		if err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		fmt.Printf("created ticket %d\n", ticket.ID)
		return nil
	},
}

var clientTicketsViewCmd = &cobra.Command{
	Use:   "view <ticket-id>",
	Short: "Show one ticket with its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("invalid ticket id")
		}
		if err := store.Tickets.FetchOne(cmd.Context(), id); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		ticket := store.Tickets.Detail().Payload
		fmt.Printf("ticket %d [%s] %s\n%s\n", ticket.ID, ticket.Status, ticket.Product, ticket.Description)

		if err := store.Notes.Fetch(cmd.Context(), id); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		for _, note := range store.Notes.View().Payload {
			fmt.Printf("  note %d: %s\n", note.ID, note.Text)
		}
		return nil
	},
}

var clientTicketsCloseCmd = &cobra.Command{
	Use:   "close <ticket-id>",
	Short: "Close a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("invalid ticket id")
		}
		if err := store.Tickets.Close(cmd.Context(), id); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		fmt.Printf("ticket %d closed\n", id)
		return nil
	},
}

var clientNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage ticket notes",
}

var clientNotesListCmd = &cobra.Command{
	Use:   "list <ticket-id>",
	Short: "List the notes of a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("invalid ticket id")
		}
		if err := store.Notes.Fetch(cmd.Context(), id); err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		for _, note := range store.Notes.View().Payload {
			fmt.Printf("%d\t%s\n", note.ID, note.Text)
		}
		return nil
	},
}

var clientNotesAddCmd = &cobra.Command{
	Use:   "add <ticket-id>",
	Short: "Add a note to a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		if err := requireLogin(store); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("invalid ticket id")
		}
		note, err := store.Notes.Add(cmd.Context(), id, clientNoteText)
		if err != nil {
			return errors.New(client.ErrorMessage(err))
		}
		fmt.Printf("added note %d\n", note.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.AddCommand(clientRegisterCmd)
	clientCmd.AddCommand(clientLoginCmd)
	clientCmd.AddCommand(clientLogoutCmd)
	clientCmd.AddCommand(clientMeCmd)
	clientCmd.AddCommand(clientTicketsCmd)
	clientCmd.AddCommand(clientNotesCmd)

	clientTicketsCmd.AddCommand(clientTicketsListCmd)
	clientTicketsCmd.AddCommand(clientTicketsCreateCmd)
	clientTicketsCmd.AddCommand(clientTicketsViewCmd)
	clientTicketsCmd.AddCommand(clientTicketsCloseCmd)

	clientNotesCmd.AddCommand(clientNotesListCmd)
	clientNotesCmd.AddCommand(clientNotesAddCmd)

	clientRegisterCmd.Flags().StringVar(&clientName, "name", "", "display name")
	clientRegisterCmd.Flags().StringVar(&clientEmail, "email", "", "email address")
	clientRegisterCmd.Flags().StringVar(&clientPassword, "password", "", "password")
	_ = clientRegisterCmd.MarkFlagRequired("name")
	_ = clientRegisterCmd.MarkFlagRequired("email")
	_ = clientRegisterCmd.MarkFlagRequired("password")

	clientLoginCmd.Flags().StringVar(&clientEmail, "email", "", "email address")
	clientLoginCmd.Flags().StringVar(&clientPassword, "password", "", "password")
	_ = clientLoginCmd.MarkFlagRequired("email")
	_ = clientLoginCmd.MarkFlagRequired("password")

	clientTicketsCreateCmd.Flags().StringVar(&clientProduct, "product", "", "product the ticket concerns")
	clientTicketsCreateCmd.Flags().StringVar(&clientDescription, "description", "", "description of the issue")
	_ = clientTicketsCreateCmd.MarkFlagRequired("product")
	_ = clientTicketsCreateCmd.MarkFlagRequired("description")

	clientNotesAddCmd.Flags().StringVar(&clientNoteText, "text", "", "note text")
	_ = clientNotesAddCmd.MarkFlagRequired("text")
}
