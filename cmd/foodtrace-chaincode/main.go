// Package main starts the foodtrace custody contract as Hyperledger Fabric
// chaincode.
package main

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/c360studio/foodtrace/fabric"
)

func main() {
	chaincode, err := contractapi.NewChaincode(&fabric.TransferContract{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating foodtrace chaincode: %v\n", err)
		os.Exit(1)
	}

	if err := chaincode.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting foodtrace chaincode: %v\n", err)
		os.Exit(1)
	}
}
