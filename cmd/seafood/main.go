package main

import (
	"context"

	"seafoodpulse/cmd/seafood/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
