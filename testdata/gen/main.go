// Command gen regenerates the sample inputs consumed by
// testdata/pipeline.yaml: a Parquet file of users and a
// newline-delimited JSON file of orders.
package main

import (
	"log"

	"detl/dataframe"
	"detl/tabio"
)

func main() {
	users := dataframe.New([]string{"name", "age", "city"})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Alice"), dataframe.IntVal(30), dataframe.StrVal("NY")})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Bob"), dataframe.IntVal(25), dataframe.StrVal("LA")})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Charlie"), dataframe.IntVal(35), dataframe.StrVal("NY")})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Diana"), dataframe.IntVal(28), dataframe.StrVal("SF")})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Eve"), dataframe.IntVal(22), dataframe.StrVal("LA")})
	users.AddRow([]dataframe.Value{dataframe.StrVal("Frank"), dataframe.IntVal(40), dataframe.StrVal("NY")})
	if err := tabio.WriteParquet("testdata/users.parquet", users); err != nil {
		log.Fatal(err)
	}

	orders := dataframe.New([]string{"name", "amount"})
	orders.AddRow([]dataframe.Value{dataframe.StrVal("Alice"), dataframe.IntVal(120)})
	orders.AddRow([]dataframe.Value{dataframe.StrVal("Alice"), dataframe.IntVal(80)})
	orders.AddRow([]dataframe.Value{dataframe.StrVal("Bob"), dataframe.IntVal(45)})
	orders.AddRow([]dataframe.Value{dataframe.StrVal("Eve"), dataframe.IntVal(300)})
	if err := tabio.WriteJSONLines("testdata/orders.ndjson", orders); err != nil {
		log.Fatal(err)
	}
}
