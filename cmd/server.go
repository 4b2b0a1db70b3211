/*
Copyright © 2024 Sindi Mkhize

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"
	"path/filepath"

	devconfig "github.com/sindi/umshado/dev/config"
	"github.com/sindi/umshado/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start an umshado server",
	Long:  `The umshado server manages the guest list and delivers whatsapp invitations`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

var serverCongFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverCongFile, "config", "", "Config for server")
}

func serverConfig() *viper.Viper {
	config := viper.New()

	if serverCongFile == "" {
		if !isDevEnv {
			cobra.CheckErr(formattedError("--config is required outside of dev mode"))
		}
		serverCongFile = devConfigFilePath()
	}

	config.SetConfigFile(serverCongFile)
	config.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		cobra.CheckErr(formattedError("error reading server config file: %v", err))
	}

	return config
}

// devConfigFilePath writes out the bundled dev config if no server.yml
// exists yet, and returns its location.
func devConfigFilePath() string {
	configDir, err := os.Getwd()
	cobra.CheckErr(err)

	configFilePath := filepath.Join(configDir, "dev", "config", "server.yml")
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		cobra.CheckErr(os.MkdirAll(filepath.Dir(configFilePath), 0700))
		cobra.CheckErr(os.WriteFile(configFilePath, []byte(devconfig.SERVER_YML), 0600))
	}

	return configFilePath
}
