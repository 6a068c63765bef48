package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

func init() {
	classify := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message without touching sessions or tickets",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClassify,
	}

	chat := &cobra.Command{
		Use:   "chat <user-id> <message>",
		Short: "Run one full exchange as a direct message from user-id",
		Args:  cobra.MinimumNArgs(2),
		Run:   runChat,
	}
	chat.Flags().String("name", "", "Display name used as ticket reporter")

	RootCmd.AddCommand(classify, chat)
}

func runClassify(cmd *cobra.Command, args []string) {
	bot, err := openApp(cmd.Context())
	if err != nil {
		exitErr("initialize", err)
	}
	defer bot.Close()

	message := strings.Join(args, " ")
	d := bot.Classifier.Classify(cmd.Context(), message, nil)
	if jsonOutput() {
		writeJSON(os.Stdout, struct {
			domain.Decision
			Source  domain.DecisionSource `json:"source"`
			Backend string                `json:"backend"`
		}{d, d.Source, bot.BackendName()})
		return
	}
	fmt.Println(labelStyle.Render("Action:") + " " + string(d.Action))
	fmt.Println(labelStyle.Render("Category:") + " " + d.Category)
	fmt.Println(labelStyle.Render("Priority:") + " " + fmt.Sprintf("%d", d.Priority))
	if d.TicketSummary != "" {
		fmt.Println(labelStyle.Render("Summary:") + " " + d.TicketSummary)
	}
	fmt.Println(labelStyle.Render("Response:") + " " + d.Response)
	fmt.Println(dimStyle.Render(fmt.Sprintf("source=%s backend=%s", d.Source, bot.BackendName())))
}

func runChat(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")

	bot, err := openApp(cmd.Context())
	if err != nil {
		exitErr("initialize", err)
	}
	defer bot.Close()

	reply, ok := bot.Service.HandleEvent(cmd.Context(), domain.Event{
		UserID:        args[0],
		DisplayName:   name,
		ChannelID:     "cli",
		DirectMessage: true,
		Text:          strings.Join(args[1:], " "),
	})
	if !ok {
		exitErr("chat", fmt.Errorf("message was ignored"))
	}
	if jsonOutput() {
		writeJSON(os.Stdout, reply)
		return
	}
	fmt.Println(renderReply(reply))
}
