package main

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/agritraceio/agritrace-backend/internal/chaincode"
)

func main() {
	cc, err := contractapi.NewChaincode(&chaincode.TraceContract{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating trace chaincode: %v\n", err)
		os.Exit(1)
	}
	if err := cc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "starting trace chaincode: %v\n", err)
		os.Exit(1)
	}
}
