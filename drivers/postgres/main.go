package main

import (
	"github.com/datazip-inc/icemirror"
	driver "github.com/datazip-inc/icemirror/drivers/postgres/internal"
)

func main() {
	driver := &driver.Postgres{}
	defer driver.Close()
	icemirror.RegisterDriver(driver)
}
