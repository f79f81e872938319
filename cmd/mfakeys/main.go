// Command mfakeys generates secrets for local setups.
//
//	mfakeys -master-key           print a new MFA_MASTER_KEY
//	mfakeys -token -user <uuid>   print a bearer token signed with JWT_SIGNING_KEY
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/config"
	"github.com/dmitrymomot/mfakit/pkg/jwt"
	"github.com/dmitrymomot/mfakit/pkg/secrets"
)

func main() {
	masterKey := flag.Bool("master-key", false, "generate a base64 master key for MFA_MASTER_KEY")
	token := flag.Bool("token", false, "issue a development bearer token")
	user := flag.String("user", "", "user id for -token, random when empty")
	ttl := flag.Duration("ttl", time.Hour, "lifetime of the issued token")
	flag.Parse()

	if !*masterKey && !*token {
		flag.Usage()
		return
	}

	if *masterKey {
		key, err := secrets.GenerateMasterKey()
		if err != nil {
			log.Fatalf("Failed to generate master key: %v", err)
		}
		fmt.Printf("MFA_MASTER_KEY=%s\n", key)
	}

	if *token {
		cfg, err := config.Load[jwt.Config]()
		if err != nil {
			log.Fatalf("Failed to load JWT config: %v", err)
		}
		svc, err := jwt.New(cfg)
		if err != nil {
			log.Fatalf("Failed to create token service: %v", err)
		}

		userID := uuid.New()
		if *user != "" {
			if userID, err = uuid.Parse(*user); err != nil {
				log.Fatalf("Invalid user id: %v", err)
			}
		}

		signed, err := svc.Issue(userID, *ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Printf("USER_ID=%s\nTOKEN=%s\n", userID, signed)
	}
}
