package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"portrait-studio-server/modules/common/logger"
)

var rootCmd = &cobra.Command{
	Use:   "portrait-studio-server",
	Short: "Professional psychologist portrait generation server",
	Long: `Portrait Studio turns a reference photo into professional portraits of a
psychologist via Gemini image generation, with prompt quality scoring,
a Redis job queue, Supabase storage and credit billing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env 파일 로드 (있으면)
		_ = godotenv.Load()
		return logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	},
	// 하위 명령 없이 실행하면 서버 시작
	RunE: runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
