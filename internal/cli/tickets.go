package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	tickets := &cobra.Command{
		Use:   "tickets <user-id>",
		Short: "List a user's most recent ticket records",
		Args:  cobra.ExactArgs(1),
		Run:   runTickets,
	}
	tickets.Flags().IntP("limit", "l", 5, "Max results (0 for all)")

	status := &cobra.Command{
		Use:   "status <ticket-id>",
		Short: "Fetch a ticket's status from the issue tracker",
		Args:  cobra.ExactArgs(1),
		Run:   runStatus,
	}

	note := &cobra.Command{
		Use:   "note <ticket-id> <text>",
		Short: "Add a note to a ticket",
		Args:  cobra.ExactArgs(2),
		Run:   runNote,
	}

	projects := &cobra.Command{
		Use:   "projects",
		Short: "List issue tracker projects visible to the bot account",
		Args:  cobra.NoArgs,
		Run:   runProjects,
	}

	RootCmd.AddCommand(tickets, status, note, projects)
}

func runTickets(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.ListTickets(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("list tickets", err)
	}
	if jsonOutput() {
		writeJSON(os.Stdout, records)
		return
	}
	fmt.Println(renderTickets(records))
}

func runStatus(cmd *cobra.Command, args []string) {
	bot, err := openApp(cmd.Context())
	if err != nil {
		exitErr("initialize", err)
	}
	defer bot.Close()

	st, ok := bot.Service.TicketStatus(cmd.Context(), args[0])
	if !ok {
		exitErr("status", fmt.Errorf("ticket #%s not found or tracker unavailable", args[0]))
	}
	if jsonOutput() {
		writeJSON(os.Stdout, st)
		return
	}
	fmt.Println(renderStatus(st))
}

func runNote(cmd *cobra.Command, args []string) {
	bot, err := openApp(cmd.Context())
	if err != nil {
		exitErr("initialize", err)
	}
	defer bot.Close()

	if !bot.Service.AddTicketNote(cmd.Context(), args[0], args[1]) {
		exitErr("note", errors.New("issue tracker rejected the note"))
	}
	if jsonOutput() {
		writeJSON(os.Stdout, map[string]string{"ticket_id": args[0], "status": "added"})
		return
	}
	fmt.Printf("note added to #%s\n", args[0])
}

func runProjects(cmd *cobra.Command, _ []string) {
	bot, err := openApp(cmd.Context())
	if err != nil {
		exitErr("initialize", err)
	}
	defer bot.Close()

	projects, ok := bot.Gateway.Projects(cmd.Context())
	if !ok {
		exitErr("projects", errors.New("issue tracker unavailable"))
	}
	if jsonOutput() {
		writeJSON(os.Stdout, projects)
		return
	}
	for _, p := range projects {
		fmt.Printf("%s  %s\n", labelStyle.Render(fmt.Sprintf("%d", p.ID)), p.Name)
	}
}
