package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/server"
)

func main() {
	server.Init()

	port := env.GetString("PORT")
	logrus.Infof("gallery server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logrus.Fatal(err)
	}
}
