//go:build js && wasm
// +build js,wasm

package main

import (
	"github.com/drummonds/pdfmanager/webapp"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

func main() {
	// Every route renders the App component with its navbar and tab bar
	webapp.RegisterRoutes()

	// This main function is for the WASM build only
	app.RunWhenOnBrowser()
}
