// souschef-mcp exposes the recipe instruction agent as an MCP stdio server,
// so an MCP client can hold cooking conversations with it.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"souschef/internal/dialogue"
	"souschef/internal/intent"
	"souschef/internal/knowledge"
	"souschef/internal/moves"
	"souschef/internal/session"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	book, err := knowledge.LoadBook(getenv("RECIPES_PATH", "data/recipes.json"))
	if err != nil {
		log.Fatalf("[souschef-mcp] %v", err)
	}
	bank, err := knowledge.LoadPhraseBank(getenv("RESPONSES_PATH", "data/responses.json"))
	if err != nil {
		log.Fatalf("[souschef-mcp] %v", err)
	}
	matcher, err := intent.Load(getenv("INTENTS_PATH", "data/intents.yaml"))
	if err != nil {
		log.Fatalf("[souschef-mcp] %v", err)
	}

	mgr := dialogue.NewManager(book, bank, moves.Standard(), nil)
	sessions := session.NewRegistry()

	s := server.NewMCPServer("souschef", "1.0.0", server.WithToolCapabilities(true))

	converseTool := mcp.NewTool("converse",
		mcp.WithDescription("Send one utterance to the cooking agent and get its reply. Pass the conversation_id from a previous reply to continue the same conversation."),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user says, e.g. 'let's make pancakes' or 'next'")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue; omit to start a new one")),
	)
	s.AddTool(converseTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		text, _ := args["text"].(string)
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		conversationID, _ := args["conversation_id"].(string)

		request, _ := matcher.Match(text)
		conv, id := sessions.Get(conversationID)
		resp := conv.Turn(mgr, request)

		var out strings.Builder
		fmt.Fprintf(&out, "conversation_id: %s\n", id)
		fmt.Fprintf(&out, "reply: %s\n", resp.Text)
		if resp.Image != "" {
			fmt.Fprintf(&out, "image: %s\n", resp.Image)
		}
		if len(resp.Suggestions) > 0 {
			fmt.Fprintf(&out, "suggestions: %s\n", strings.Join(resp.Suggestions, ", "))
		}
		return mcp.NewToolResultText(out.String()), nil
	})

	resetTool := mcp.NewTool("reset_conversation",
		mcp.WithDescription("Forget a conversation's state so the next utterance starts fresh."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to reset")),
	)
	s.AddTool(resetTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		id, _ := args["conversation_id"].(string)
		if id == "" {
			return mcp.NewToolResultError("conversation_id is required"), nil
		}
		if !sessions.Reset(id) {
			return mcp.NewToolResultError(fmt.Sprintf("no conversation %q", id)), nil
		}
		return mcp.NewToolResultText("conversation reset"), nil
	})

	listTool := mcp.NewTool("list_recipes",
		mcp.WithDescription("List the recipes the agent can instruct."),
	)
	s.AddTool(listTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(strings.Join(book.RecipeNames(), "\n")), nil
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("[souschef-mcp] %v", err)
	}
}
