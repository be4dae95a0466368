// main is the entry point of the rtei CLI.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rtei-org/rtei/cmd"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/iocache"
)

func main() {
	// A .env file may carry RTEI_* settings such as database and S3 credentials
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Cannot load .env", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)

	err := cmd.Execute()
	stop()
	iocache.CloseStores()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("Cannot run rtei", err)
	}
}
