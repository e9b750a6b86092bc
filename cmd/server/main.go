// @title           Image Store API
// @version         1.0
// @description     Multi-user, content addressed image store.
// @schemes         http https
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	_ "imagestore/docs"
)

func main() {
	Execute()
}
