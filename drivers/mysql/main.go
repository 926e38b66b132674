package main

import (
	"github.com/datazip-inc/icemirror"
	driver "github.com/datazip-inc/icemirror/drivers/mysql/internal"
)

func main() {
	driver := &driver.MySQL{}
	defer driver.Close()
	icemirror.RegisterDriver(driver)
}
