package main

import (
	"context"

	"webtoonkit/cmd/comics/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
