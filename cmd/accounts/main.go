// Command accounts はユーザーアカウント管理APIのエントリーポイント。
//
// 使い方:
//
//	accounts [serve|migrate|healthcheck|inspect-token <token>]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/accounts/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "accounts: %v\n", err)
		os.Exit(1)
	}
}
