package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillforge/skillet/pkg/presenter"
	"github.com/skillforge/skillet/pkg/trello"
)

var trelloCmd = &cobra.Command{
	Use:   "trello",
	Short: "Work with Trello boards",
	Long: `Read boards, lists and cards, and create cards. Requires
SKILLET_TRELLO_KEY and SKILLET_TRELLO_TOKEN (or trello_key/trello_token in
the config file).`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var trelloBoardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List your boards",
	Run: func(cmd *cobra.Command, _ []string) {
		client := mustTrelloClient()
		boards, err := client.Boards(cmd.Context())
		if err != nil {
			presenter.Error(err, "Failed to list boards")
			os.Exit(1)
		}
		printTrelloJSON(boards)
	},
}

var trelloListsCmd = &cobra.Command{
	Use:   "lists <board-id>",
	Short: "List the lists on a board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustTrelloClient()
		lists, err := client.Lists(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "Failed to list lists")
			os.Exit(1)
		}
		printTrelloJSON(lists)
	},
}

var trelloCardsCmd = &cobra.Command{
	Use:   "cards <list-id>",
	Short: "List the cards in a list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustTrelloClient()
		cards, err := client.Cards(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "Failed to list cards")
			os.Exit(1)
		}
		printTrelloJSON(cards)
	},
}

var trelloAddCardCmd = &cobra.Command{
	Use:   "add-card <list-id> <name>",
	Short: "Create a card in a list",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("desc")

		client := mustTrelloClient()
		card, err := client.CreateCard(cmd.Context(), args[0], args[1], desc)
		if err != nil {
			presenter.Error(err, "Failed to create card")
			os.Exit(1)
		}
		printTrelloJSON(card)
	},
}

func init() {
	trelloAddCardCmd.Flags().String("desc", "", "Card description")

	trelloCmd.AddCommand(trelloBoardsCmd)
	trelloCmd.AddCommand(trelloListsCmd)
	trelloCmd.AddCommand(trelloCardsCmd)
	trelloCmd.AddCommand(trelloAddCardCmd)
	rootCmd.AddCommand(trelloCmd)
}

func mustTrelloClient() *trello.Client {
	key := viper.GetString("trello_key")
	token := viper.GetString("trello_token")
	if key == "" || token == "" {
		presenter.Error(errors.New("missing Trello credentials"), "Set SKILLET_TRELLO_KEY and SKILLET_TRELLO_TOKEN")
		os.Exit(1)
	}
	return trello.NewClient(key, token)
}

func printTrelloJSON(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to format response")
		os.Exit(1)
	}
	fmt.Println(string(output))
}
